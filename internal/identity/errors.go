package identity

import (
	"context"
	"errors"
	"net/http"

	"quill/internal/models"
)

const (
	opRegister = "registration"
	opLogin    = "login"
	opLogout   = "logout"
	opRecovery = "recovery"
	opSession  = "session"
	opIdentity = "identity"
)

// mapProviderError translates a failed Kratos call into an AppError whose code
// the caller and the API surface can branch on. The provider does not
// distinguish a wrong password from an unknown identifier on login, so both
// surface as "wrong-password"; unknown-identity admin lookups surface as
// "user-not-found".
func mapProviderError(err error, resp *http.Response, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewUnknownError(err)
	}
	if resp == nil {
		return models.NewUnknownError(err)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized:
		switch op {
		case opLogin:
			return models.NewProviderError("wrong-password", "Invalid email or password", err)
		case opRegister:
			return models.NewProviderError("email-already-in-use", "An account with this email already exists", err)
		case opRecovery:
			return models.NewFailedPreconditionError("Recovery code is invalid or expired")
		case opSession, opLogout:
			return models.NewUnauthenticatedError("Session is invalid or expired")
		}
		return models.NewProviderError("invalid-request", "The identity provider rejected the request", err)
	case http.StatusForbidden:
		return models.NewProviderError("user-disabled", "This account has been disabled", err)
	case http.StatusNotFound:
		if op == opIdentity {
			return models.NewProviderError("user-not-found", "No account exists for this user", err)
		}
		return models.NewFailedPreconditionError("The flow was not found, please start over")
	case http.StatusGone:
		return models.NewFailedPreconditionError("The flow has expired, please start over")
	case http.StatusUnprocessableEntity:
		return models.NewFailedPreconditionError("The flow requires a different continuation")
	}

	return models.NewUnknownError(err)
}
