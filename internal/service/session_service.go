// Package service contains the application's business logic.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"quill/internal/identity"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

// SessionState is the authenticated account plus its application profile.
// A nil *SessionState means signed out.
type SessionState struct {
	Account identity.Account
	Profile *models.UserProfile
	Token   string
}

// SessionService owns the process-wide session cell. All transitions go
// through setCurrent so observers see a single ordered stream of states.
type SessionService struct {
	provider identity.Provider
	profiles repository.ProfileRepository

	mu      sync.RWMutex
	current *SessionState
	subs    map[chan *SessionState]struct{}
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
	Picture  string
}

// NewSessionService creates a SessionService on top of an identity provider
// and the profile store.
func NewSessionService(provider identity.Provider, profiles repository.ProfileRepository) *SessionService {
	return &SessionService{
		provider: provider,
		profiles: profiles,
		subs:     make(map[chan *SessionState]struct{}),
	}
}

// Current returns the session state as of the last transition.
func (s *SessionService) Current() *SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers an observer of session transitions. The observer
// receives the current state immediately, then every subsequent transition.
func (s *SessionService) Subscribe() (<-chan *SessionState, func()) {
	ch := make(chan *SessionState, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *SessionService) setCurrent(state *SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = state
	for ch := range s.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// SignUp registers a new account with the identity provider and provisions
// its profile with the reader role.
func (s *SessionService) SignUp(ctx context.Context, in SignUpInput) (*SessionState, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewProviderError("invalid-email", err.Error(), nil)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	traits := identity.Traits{
		Email:    in.Email,
		Username: in.Username,
		Picture:  fallbackAvatar(in.Picture),
	}

	session, err := s.provider.Register(ctx, in.Email, in.Password, traits)
	if err != nil {
		return nil, err
	}

	profile, err := s.provisionProfile(ctx, session.Account)
	if err != nil {
		return nil, err
	}

	state := &SessionState{Account: session.Account, Profile: profile, Token: session.Token}
	s.setCurrent(state)
	return state, nil
}

// SignIn authenticates with email and password.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*SessionState, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewProviderError("invalid-email", err.Error(), nil)
	}
	if password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	session, err := s.provider.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolveProfile(ctx, session.Account)
	if err != nil {
		return nil, err
	}

	state := &SessionState{Account: session.Account, Profile: profile, Token: session.Token}
	s.setCurrent(state)
	return state, nil
}

// SignInWithProvider resumes a session token minted by a federated sign-in.
// The first sign-in of a federated account provisions its profile from the
// identity's traits.
func (s *SessionService) SignInWithProvider(ctx context.Context, token string) (*SessionState, error) {
	account, err := s.provider.Resume(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolveProfile(ctx, *account)
	if err != nil {
		return nil, err
	}

	state := &SessionState{Account: *account, Profile: profile, Token: token}
	s.setCurrent(state)
	return state, nil
}

// SignOut revokes the provider session and clears the cell. Revocation
// failures are logged but never keep the user signed in locally.
func (s *SessionService) SignOut(ctx context.Context) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current != nil && current.Token != "" {
		if err := s.provider.Logout(ctx, current.Token); err != nil {
			slog.Warn("provider logout failed", "uid", current.Account.UID, "error", err)
		}
	}
	s.setCurrent(nil)
}

// Revoke invalidates a provider session token without touching the cell.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.provider.Logout(ctx, token)
}

// SendPasswordResetEmail starts a recovery flow and returns its id, which the
// caller hands back to ConfirmPasswordReset together with the emailed code.
func (s *SessionService) SendPasswordResetEmail(ctx context.Context, email string) (string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return "", models.NewProviderError("invalid-email", err.Error(), nil)
	}
	return s.provider.SendRecoveryCode(ctx, email)
}

// ConfirmPasswordReset completes a recovery flow with the emailed code and
// sets the new password.
func (s *SessionService) ConfirmPasswordReset(ctx context.Context, flowID, code, newPassword string) error {
	if flowID == "" || code == "" {
		return models.NewValidationError("Flow id and code are required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	return s.provider.CompleteRecovery(ctx, flowID, code, newPassword)
}

// Resolve maps a provider session token to its account and profile without
// touching the session cell. The HTTP layer uses it to authenticate requests
// carrying a provider token.
func (s *SessionService) Resolve(ctx context.Context, token string) (*SessionState, error) {
	account, err := s.provider.Resume(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, err := s.resolveProfile(ctx, *account)
	if err != nil {
		return nil, err
	}
	return &SessionState{Account: *account, Profile: profile, Token: token}, nil
}

// resolveProfile loads the account's profile, provisioning it on first
// sign-in.
func (s *SessionService) resolveProfile(ctx context.Context, account identity.Account) (*models.UserProfile, error) {
	profile, err := s.profiles.GetByUID(ctx, account.UID)
	if err == nil {
		return profile, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	return s.provisionProfile(ctx, account)
}

func (s *SessionService) provisionProfile(ctx context.Context, account identity.Account) (*models.UserProfile, error) {
	username := account.Traits.Username
	if username == "" {
		// Federated accounts may arrive without a username trait.
		if at := strings.Index(account.Traits.Email, "@"); at > 0 {
			username = account.Traits.Email[:at]
		} else {
			username = account.UID
		}
	}

	profile := &models.UserProfile{
		UID:          account.UID,
		Username:     username,
		Role:         models.RoleReader,
		ProfileImage: fallbackAvatar(account.Traits.Picture),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// fallbackAvatar substitutes the default avatar for missing or unusable
// image links.
func fallbackAvatar(picture string) string {
	if picture == "" {
		return models.DefaultAvatarURL
	}
	if err := validation.ValidateImageURL(picture); err != nil {
		return models.DefaultAvatarURL
	}
	return picture
}
