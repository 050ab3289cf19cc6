// Package identity wraps the external identity provider. The rest of the
// application talks to the Provider interface and never sees provider-specific
// types or error values.
package identity

import (
	"context"
)

// Traits are the identity attributes stored with the provider.
type Traits struct {
	Email    string
	Username string
	Picture  string
}

// Account is an authenticated identity as reported by the provider.
type Account struct {
	UID    string
	Traits Traits
}

// Session pairs an account with the provider's session token.
type Session struct {
	Token   string
	Account Account
}

// Provider is the port to the external identity service.
//
// All operations are non-cancellable once issued; the context controls only
// the local wait. Every call reports exactly one terminal outcome.
type Provider interface {
	// Register creates a new identity with email/password credentials and
	// returns an active session for it.
	Register(ctx context.Context, email, password string, traits Traits) (*Session, error)

	// Login authenticates email/password credentials.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Resume validates a session token and returns the account it belongs to.
	Resume(ctx context.Context, token string) (*Account, error)

	// Logout invalidates the session token with the provider.
	Logout(ctx context.Context, token string) error

	// SendRecoveryCode starts the password-recovery flow for email and returns
	// the flow ID the caller must present together with the emailed code.
	SendRecoveryCode(ctx context.Context, email string) (flowID string, err error)

	// CompleteRecovery verifies the emailed code against the flow and sets the
	// new password.
	CompleteRecovery(ctx context.Context, flowID, code, newPassword string) error

	// UpdateTraits replaces the display attributes of the identity.
	UpdateTraits(ctx context.Context, uid string, traits Traits) error
}
