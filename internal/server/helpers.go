// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"errors"
	"strings"

	"quill/internal/models"
	"quill/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPaginationLimit = 100

// parsePage extracts the limit and opaque cursor query parameters.
// On a malformed cursor it writes a 400 response and returns errResponseWritten.
func (s *Server) parsePage(c *fiber.Ctx, defaultLimit int) (int, *repository.Cursor, error) {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	token := c.Query("after")
	if token == "" {
		return limit, nil, nil
	}
	cursor, err := repository.DecodeCursor(token)
	if err != nil {
		respondServiceError(c, err)
		return 0, nil, errResponseWritten
	}
	return limit, cursor, nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		label := param
		if label == "id" {
			label = "ID"
		}
		respondServiceError(c, models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUID returns the identity UID the auth middleware stored in locals.
func currentUID(c *fiber.Ctx) string {
	uid, _ := c.Locals("uid").(string)
	return uid
}

// respondServiceError maps a service-layer error to its HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// bearerToken extracts the raw token from an Authorization header, if any.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
