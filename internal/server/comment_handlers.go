package server

import (
	"github.com/gofiber/fiber/v2"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
)

// ListComments returns a page of comments for an article, newest first
// (public). Uses the same opaque-cursor pagination as the article listing.
func (s *Server) ListComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	limit, after, err := s.parsePage(c, service.DefaultPageSize)
	if err != nil {
		return nil
	}

	page, end, err := s.commentService.ListPage(ctx, articleID, after, limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	resp := fiber.Map{
		"comments":          page,
		"end_of_collection": end,
	}
	if !end && len(page) > 0 {
		last := page[len(page)-1]
		resp["next_cursor"] = repository.Cursor{Time: last.PostTime, ID: last.ID}.Encode()
	}

	return c.JSON(resp)
}

// CreateComment adds a comment to an article (protected). An ops kill switch
// can pause commenting platform-wide without a deploy.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if s.featureFlags.Disabled("comments") {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewFailedPreconditionError("Commenting is temporarily disabled"))
	}

	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(ctx, service.CreateCommentInput{
		CommenterUID: currentUID(c),
		ArticleID:    articleID,
		Content:      req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}
