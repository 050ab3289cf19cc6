package server

import (
	"github.com/gofiber/fiber/v2"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
)

// ListArticles returns a page of published article previews (public).
// Pagination is keyset-based: the response carries an opaque cursor the
// client echoes back in the "after" query parameter.
func (s *Server) ListArticles(c *fiber.Ctx) error {
	ctx := c.UserContext()

	limit, after, err := s.parsePage(c, service.DefaultPageSize)
	if err != nil {
		return nil
	}

	page, end, err := s.articleService.ListPage(ctx, after, limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	previews := make([]models.ArticlePreview, 0, len(page))
	for _, article := range page {
		previews = append(previews, article.Preview())
	}

	resp := fiber.Map{
		"articles":          previews,
		"end_of_collection": end,
	}
	if !end && len(page) > 0 {
		last := page[len(page)-1]
		cursor := repository.Cursor{ID: last.ID}
		if last.PublishTime != nil {
			cursor.Time = *last.PublishTime
		}
		resp["next_cursor"] = cursor.Encode()
	}

	return c.JSON(resp)
}

// GetArticle returns a single article by ID (public, drafts included so
// authors can preview their own work).
func (s *Server) GetArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	article, err := s.articleService.GetByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(article)
}

// CreateArticle creates an article authored by the current user (protected).
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		HeaderImage string `json:"header_image"`
		Published   bool   `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.Create(ctx, service.CreateArticleInput{
		AuthorUID:   currentUID(c),
		Title:       req.Title,
		Content:     req.Content,
		HeaderImage: req.HeaderImage,
		Published:   req.Published,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle overwrites an article's mutable fields (owner or admin).
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		HeaderImage string `json:"header_image"`
		Published   bool   `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.Edit(ctx, service.EditArticleInput{
		AuthorUID:   currentUID(c),
		ArticleID:   id,
		Title:       req.Title,
		Content:     req.Content,
		HeaderImage: req.HeaderImage,
		Published:   req.Published,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(article)
}

// DeleteArticle removes an article (owner or admin). The outcome is also
// reported on the notification bus.
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.articleService.Delete(ctx, currentUID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
