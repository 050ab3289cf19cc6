package server

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"quill/internal/models"
	"quill/internal/service"
)

// UploadMedia handles POST /api/media. Accepts a multipart file upload and
// returns the public URL the stored blob is served from.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	url, err := s.mediaService.Upload(c.UserContext(), service.UploadInput{
		UID:      currentUID(c),
		Filename: file.Filename,
		Data:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
