package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authTestSecret = "test-secret-key-12345678901234567890123456789012"

type tokenOpts struct {
	uid      string
	username string
	iss      string
	aud      string
	exp      time.Duration
	secret   string
}

func signTestToken(t *testing.T, opts tokenOpts) string {
	t.Helper()
	if opts.iss == "" {
		opts.iss = "quill-api"
	}
	if opts.aud == "" {
		opts.aud = "quill-client"
	}
	if opts.exp == 0 {
		opts.exp = time.Hour
	}
	if opts.secret == "" {
		opts.secret = authTestSecret
	}

	claims := jwt.MapClaims{
		"sub":      opts.uid,
		"username": opts.username,
		"iss":      opts.iss,
		"aud":      opts.aud,
		"exp":      time.Now().Add(opts.exp).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(opts.secret))
	require.NoError(t, err)
	return signed
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: authTestSecret})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"uid":      c.Locals("uid"),
			"username": c.Locals("username"),
		})
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUID    string
	}{
		{
			name:           "Valid Token",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: "uid-1", username: "tester"}),
			expectedStatus: http.StatusOK,
			expectedUID:    "uid-1",
		},
		{
			name:           "Missing Header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Header",
			header:         "NotBearer xyz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: "uid-1", exp: -time.Hour}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Issuer",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: "uid-1", iss: "someone-else"}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Audience",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: "uid-1", aud: "other-client"}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: "uid-1", secret: "another-secret-entirely-32-chars!"}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Subject",
			header:         "Bearer " + signTestToken(t, tokenOpts{uid: ""}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUID, body["uid"])
				assert.Equal(t, "tester", body["username"])
			}
		})
	}
}

func TestWebSocketAuthRequired_QueryToken(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: authTestSecret})

	app.Get("/ws", WebSocketAuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"uid": c.Locals("uid")})
	})

	token := signTestToken(t, tokenOpts{uid: "uid-ws", username: "streamer"})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "uid-ws", body["uid"])

	// Header fallback works too
	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No token at all
	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
