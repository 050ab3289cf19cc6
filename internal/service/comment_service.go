package service

import (
	"context"
	"time"

	"quill/internal/models"
	"quill/internal/repository"
)

const maxCommentLen = 10000

// CommentService owns comment writes. Reads go through feeds created with
// NewFeed.
type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	profiles repository.ProfileRepository
}

type CreateCommentInput struct {
	CommenterUID string
	ArticleID    uint
	Content      string
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		profiles: profiles,
	}
}

// NewFeed returns a feed over one article's comments.
func (s *CommentService) NewFeed(articleID uint, pageSize int) *CommentFeed {
	return NewCommentFeed(s.comments, articleID, pageSize)
}

// ListPage fetches one page of an article's comments for stateless callers.
func (s *CommentService) ListPage(ctx context.Context, articleID uint, after *repository.Cursor, limit int) ([]*models.Comment, bool, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return nil, false, err
	}
	page, err := s.comments.ListByArticle(ctx, articleID, after, limit)
	if err != nil {
		return nil, false, err
	}
	return page, len(page) < limit, nil
}

// Create appends a comment stamped with the commenter's profile.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.CommenterUID == "" {
		return nil, models.NewUnauthenticatedError("You must be signed in")
	}
	profile, err := s.profiles.GetByUID(ctx, in.CommenterUID)
	if err != nil {
		return nil, models.NewUnauthenticatedError("You must be signed in")
	}

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if _, err := s.articles.GetByID(ctx, in.ArticleID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ArticleID:         in.ArticleID,
		CommenterUID:      profile.UID,
		CommenterUsername: profile.Username,
		CommenterImage:    profile.ProfileImage,
		Content:           in.Content,
		PostTime:          time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
