package server

import (
	"github.com/gofiber/fiber/v2"

	"quill/internal/models"
	"quill/internal/service"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Get(c.UserContext(), currentUID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me. Trait changes are pushed to the
// identity provider as well, so the login identity stays in sync.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username     string `json:"username"`
		ProfileImage string `json:"profile_image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.Update(c.UserContext(), service.UpdateProfileInput{
		UID:          currentUID(c),
		Username:     req.Username,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// RequestPromotion handles POST /api/users/me/promotion. Readers ask to
// become contributors; an admin later applies the promotion.
func (s *Server) RequestPromotion(c *fiber.Ctx) error {
	if s.featureFlags.Disabled("promotions") {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewFailedPreconditionError("Promotion requests are temporarily disabled"))
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.RequestPromotion(c.UserContext(), currentUID(c), req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(profile)
}

// ApplyPromotion handles POST /api/users/:uid/promote (admin only).
func (s *Server) ApplyPromotion(c *fiber.Ctx) error {
	targetUID := c.Params("uid")
	if targetUID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid UID"))
	}

	profile, err := s.profileService.ApplyPromotion(c.UserContext(), currentUID(c), targetUID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}
