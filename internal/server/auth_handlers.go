// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"fmt"
	"time"

	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionResponse renders a session state plus a freshly minted access token.
func (s *Server) sessionResponse(c *fiber.Ctx, status int, state *service.SessionState) error {
	token, err := s.generateToken(state.Account.UID, state.Profile.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewUnknownError(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"token":         token,
		"session_token": state.Token,
		"profile":       state.Profile,
	})
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Picture  string `json:"picture"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	state, err := s.sessionService.SignUp(c.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Picture:  req.Picture,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return s.sessionResponse(c, fiber.StatusCreated, state)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	state, err := s.sessionService.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	return s.sessionResponse(c, fiber.StatusOK, state)
}

// LoginWithProvider handles POST /api/auth/provider. The client completes a
// federated sign-in against the identity provider and hands over the session
// token it got back; the first such sign-in provisions the profile.
func (s *Server) LoginWithProvider(c *fiber.Ctx) error {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.SessionToken == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("session_token is required"))
	}

	state, err := s.sessionService.SignInWithProvider(c.Context(), req.SessionToken)
	if err != nil {
		return respondServiceError(c, err)
	}

	return s.sessionResponse(c, fiber.StatusOK, state)
}

// Logout handles POST /api/auth/logout. The provider session token travels in
// the body; the access token in the Authorization header only proves who is
// asking.
func (s *Server) Logout(c *fiber.Ctx) error {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.BodyParser(&req); err == nil && req.SessionToken != "" {
		if err := s.sessionService.Revoke(c.Context(), req.SessionToken); err != nil {
			return respondServiceError(c, err)
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// SendPasswordReset handles POST /api/auth/password-reset
func (s *Server) SendPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	flowID, err := s.sessionService.SendPasswordResetEmail(c.Context(), req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"flow_id": flowID})
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req struct {
		FlowID      string `json:"flow_id"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.sessionService.ConfirmPasswordReset(c.Context(), req.FlowID, req.Code, req.NewPassword); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// generateToken creates a JWT access token for the given identity UID.
func (s *Server) generateToken(uid, username string) (string, error) {
	// Validate secret exists
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      uid,                                // Subject (identity UID)
		"username": username,                           // Username (cached in token)
		"iss":      "quill-api",                        // Issuer
		"aud":      "quill-client",                     // Audience
		"exp":      now.Add(time.Hour * 24 * 7).Unix(), // Expiration (7 days)
		"iat":      now.Unix(),                         // Issued at
		"nbf":      now.Unix(),                         // Not before
		"jti":      s.generateJTI(),                    // JWT ID (unique identifier)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
