package repository

import (
	"context"
	"errors"

	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
)

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	ListPublished(ctx context.Context, after *Cursor, limit int) ([]*models.Article, error)
	ListByAuthor(ctx context.Context, authorUID string, after *Cursor, limit int) ([]*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uint) error
}

// articleRepository implements ArticleRepository
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := cache.Aside(ctx, cache.ArticleKey(id), &article, cache.ArticleTTL, func() error {
		return r.db.WithContext(ctx).First(&article, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Article", id)
		}
		return nil, err
	}
	return &article, nil
}

// ListPublished pages through published articles newest-first. Rows sharing a
// publish time are ordered by descending id so a cursor never skips or repeats
// a row.
func (r *articleRepository) ListPublished(ctx context.Context, after *Cursor, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	q := r.db.WithContext(ctx).
		Where("published = ?", true)
	if after != nil {
		q = q.Where("publish_time < ? OR (publish_time = ? AND id < ?)", after.Time, after.Time, after.ID)
	}
	err := q.
		Order("publish_time DESC, id DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

func (r *articleRepository) ListByAuthor(ctx context.Context, authorUID string, after *Cursor, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	q := r.db.WithContext(ctx).
		Where("author_uid = ?", authorUID)
	if after != nil {
		q = q.Where("edit_time < ? OR (edit_time = ? AND id < ?)", after.Time, after.Time, after.ID)
	}
	err := q.
		Order("edit_time DESC, id DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Save(article).Error; err != nil {
		return err
	}
	cache.InvalidateArticle(ctx, article.ID)
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Article{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Article", id)
	}
	cache.InvalidateArticle(ctx, id)
	return nil
}
