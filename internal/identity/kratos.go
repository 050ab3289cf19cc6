package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"quill/internal/config"
	"quill/internal/models"

	kratos "github.com/ory/kratos-client-go"
)

// KratosProvider implements Provider against an Ory Kratos instance.
type KratosProvider struct {
	public *kratos.APIClient
	admin  *kratos.APIClient
	logger *slog.Logger
}

// NewKratosProvider creates a Provider backed by Kratos public and admin APIs.
func NewKratosProvider(cfg *config.Config, logger *slog.Logger) (*KratosProvider, error) {
	if !isValidURL(cfg.KratosPublicURL) {
		return nil, fmt.Errorf("invalid Kratos public URL: %s", cfg.KratosPublicURL)
	}
	if !isValidURL(cfg.KratosAdminURL) {
		return nil, fmt.Errorf("invalid Kratos admin URL: %s", cfg.KratosAdminURL)
	}

	publicConfig := kratos.NewConfiguration()
	publicConfig.Servers = []kratos.ServerConfiguration{{URL: cfg.KratosPublicURL}}
	publicConfig.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	adminConfig := kratos.NewConfiguration()
	adminConfig.Servers = []kratos.ServerConfiguration{{URL: cfg.KratosAdminURL}}
	adminConfig.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	logger.Info("identity provider client initialized",
		"public_url", cfg.KratosPublicURL,
		"admin_url", cfg.KratosAdminURL)

	return &KratosProvider{
		public: kratos.NewAPIClient(publicConfig),
		admin:  kratos.NewAPIClient(adminConfig),
		logger: logger,
	}, nil
}

func (p *KratosProvider) Register(ctx context.Context, email, password string, traits Traits) (*Session, error) {
	flow, resp, err := p.public.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, opRegister)
	}

	body := kratos.UpdateRegistrationFlowWithPasswordMethod{
		Method:   "password",
		Password: password,
		Traits:   traitsMap(email, traits),
	}
	ok, resp, err := p.public.FrontendAPI.
		UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(kratos.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(&body)).
		Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, opRegister)
	}

	token := ok.GetSessionToken()
	if token == "" {
		// Session issuance after registration is an instance-level toggle on
		// the provider; fall back to a credential login when it is off.
		return p.Login(ctx, email, password)
	}
	return p.sessionFromToken(ctx, token)
}

func (p *KratosProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	flow, resp, err := p.public.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, opLogin)
	}

	body := kratos.UpdateLoginFlowWithPasswordMethod{
		Identifier: email,
		Method:     "password",
		Password:   password,
	}
	ok, resp, err := p.public.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, opLogin)
	}

	token := ok.GetSessionToken()
	if token == "" {
		return nil, models.NewUnknownError(fmt.Errorf("provider returned no session token"))
	}
	return p.sessionFromToken(ctx, token)
}

func (p *KratosProvider) Resume(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, models.NewUnauthenticatedError("Session token required")
	}

	session, resp, err := p.public.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		return nil, mapProviderError(err, resp, opSession)
	}

	if session.Active != nil && !*session.Active {
		return nil, models.NewUnauthenticatedError("Session is not active")
	}
	if session.Identity == nil {
		return nil, models.NewUnknownError(fmt.Errorf("missing identity in provider response"))
	}

	return &Account{
		UID:    session.Identity.Id,
		Traits: traitsFrom(session.Identity.Traits),
	}, nil
}

func (p *KratosProvider) Logout(ctx context.Context, token string) error {
	resp, err := p.public.FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratos.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, opLogout)
	}
	return nil
}

func (p *KratosProvider) SendRecoveryCode(ctx context.Context, email string) (string, error) {
	flow, resp, err := p.public.FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return "", mapProviderError(err, resp, opRecovery)
	}

	body := kratos.UpdateRecoveryFlowWithCodeMethod{
		Method: "code",
		Email:  &email,
	}
	updated, resp, err := p.public.FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(kratos.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(&body)).
		Execute()
	if err != nil {
		return "", mapProviderError(err, resp, opRecovery)
	}

	return updated.Id, nil
}

func (p *KratosProvider) CompleteRecovery(ctx context.Context, flowID, code, newPassword string) error {
	body := kratos.UpdateRecoveryFlowWithCodeMethod{
		Method: "code",
		Code:   &code,
	}
	flow, resp, err := p.public.FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flowID).
		UpdateRecoveryFlowBody(kratos.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(&body)).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, opRecovery)
	}

	// A verified code hands back a privileged session; the new password is set
	// through a settings flow bound to it.
	var token string
	for _, cw := range flow.ContinueWith {
		if cw.ContinueWithSetOrySessionToken != nil {
			token = cw.ContinueWithSetOrySessionToken.OrySessionToken
		}
	}
	if token == "" {
		return models.NewFailedPreconditionError("Recovery code not accepted")
	}

	settings, resp, err := p.public.FrontendAPI.
		CreateNativeSettingsFlow(ctx).
		XSessionToken(token).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, opRecovery)
	}

	pw := kratos.UpdateSettingsFlowWithPasswordMethod{
		Method:   "password",
		Password: newPassword,
	}
	_, resp, err = p.public.FrontendAPI.
		UpdateSettingsFlow(ctx).
		Flow(settings.Id).
		XSessionToken(token).
		UpdateSettingsFlowBody(kratos.UpdateSettingsFlowWithPasswordMethodAsUpdateSettingsFlowBody(&pw)).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, opRecovery)
	}

	return nil
}

func (p *KratosProvider) UpdateTraits(ctx context.Context, uid string, traits Traits) error {
	id, resp, err := p.admin.IdentityAPI.GetIdentity(ctx, uid).Execute()
	if err != nil {
		return mapProviderError(err, resp, opIdentity)
	}

	body := kratos.UpdateIdentityBody{
		SchemaId: id.SchemaId,
		Traits:   traitsMap(traits.Email, traits),
	}
	if id.State != nil {
		body.State = *id.State
	}

	_, resp, err = p.admin.IdentityAPI.
		UpdateIdentity(ctx, uid).
		UpdateIdentityBody(body).
		Execute()
	if err != nil {
		return mapProviderError(err, resp, opIdentity)
	}
	return nil
}

func (p *KratosProvider) sessionFromToken(ctx context.Context, token string) (*Session, error) {
	account, err := p.Resume(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: *account}, nil
}

func traitsMap(email string, traits Traits) map[string]interface{} {
	return map[string]interface{}{
		"email":    email,
		"username": traits.Username,
		"picture":  traits.Picture,
	}
}

// traitsFrom extracts the known trait fields from the provider's duck-typed
// traits value. Federated providers report "name" instead of "username".
func traitsFrom(v interface{}) Traits {
	traits := Traits{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return traits
	}
	if s, ok := m["email"].(string); ok {
		traits.Email = s
	}
	if s, ok := m["username"].(string); ok {
		traits.Username = s
	}
	if traits.Username == "" {
		if s, ok := m["name"].(string); ok {
			traits.Username = s
		}
	}
	if s, ok := m["picture"].(string); ok {
		traits.Picture = s
	}
	return traits
}

// isValidURL validates if a URL is properly formatted
func isValidURL(urlStr string) bool {
	if urlStr == "" {
		return false
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	return parsedURL.Scheme != "" && parsedURL.Host != ""
}
