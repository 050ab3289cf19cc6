// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"quill/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByArticle(ctx context.Context, articleID uint, after *Cursor, limit int) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByArticle pages through an article's comments newest-first, keyed on
// (post_time, id) like the article listing.
func (r *commentRepository) ListByArticle(
	ctx context.Context,
	articleID uint,
	after *Cursor,
	limit int,
) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := r.db.WithContext(ctx).Where("article_id = ?", articleID)
	if after != nil {
		q = q.Where("post_time < ? OR (post_time = ? AND id < ?)", after.Time, after.Time, after.ID)
	}
	err := q.
		Order("post_time DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
