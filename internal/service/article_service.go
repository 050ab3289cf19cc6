package service

import (
	"context"
	"time"

	"quill/internal/models"
	"quill/internal/notifications"
	"quill/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 100000
)

// ArticleService owns article mutations. Reads go through feeds created with
// NewFeed or through GetByID.
type ArticleService struct {
	articles repository.ArticleRepository
	profiles repository.ProfileRepository
	bus      *notifications.Bus
	now      func() time.Time
}

type CreateArticleInput struct {
	AuthorUID   string
	Title       string
	Content     string
	HeaderImage string
	Published   bool
}

type EditArticleInput struct {
	AuthorUID   string
	ArticleID   uint
	Title       string
	Content     string
	HeaderImage string
	Published   bool
}

// NewArticleService creates an ArticleService.
func NewArticleService(
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	bus *notifications.Bus,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		profiles: profiles,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewFeed returns a feed over the published listing.
func (s *ArticleService) NewFeed(pageSize int) *ArticleFeed {
	return NewArticleFeed(s.articles, pageSize)
}

// ListPage fetches one page of the published listing without feed state, for
// stateless callers that carry the cursor themselves.
func (s *ArticleService) ListPage(ctx context.Context, after *repository.Cursor, limit int) ([]*models.Article, bool, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	page, err := s.articles.ListPublished(ctx, after, limit)
	if err != nil {
		return nil, false, err
	}
	return page, len(page) < limit, nil
}

func (s *ArticleService) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.articles.GetByID(ctx, id)
}

// Create writes a new article stamped with the author's profile. The author
// must resolve to a signed-in profile before any write happens.
func (s *ArticleService) Create(ctx context.Context, in CreateArticleInput) (*models.Article, error) {
	profile, err := s.resolveAuthor(ctx, in.AuthorUID)
	if err != nil {
		return nil, err
	}
	if err := validateArticleFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	now := s.now()
	article := &models.Article{
		AuthorUID:      profile.UID,
		AuthorUsername: profile.Username,
		AuthorImage:    profile.ProfileImage,
		Title:          in.Title,
		Content:        in.Content,
		HeaderImage:    in.HeaderImage,
		Published:      in.Published,
		EditTime:       now,
	}
	if in.Published {
		article.PublishTime = &now
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Edit overwrites an article's mutable fields. edit_time always moves; a save
// with published=true stamps a fresh publish_time even if the article was
// already published, so republishing reorders it to the top of the feed.
func (s *ArticleService) Edit(ctx context.Context, in EditArticleInput) (*models.Article, error) {
	profile, err := s.resolveAuthor(ctx, in.AuthorUID)
	if err != nil {
		return nil, err
	}
	if err := validateArticleFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	article, err := s.articles.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorUID != profile.UID && profile.Role != models.RoleAdmin {
		return nil, models.NewUnauthenticatedError("You can only edit your own articles")
	}

	now := s.now()
	article.Title = in.Title
	article.Content = in.Content
	article.HeaderImage = in.HeaderImage
	article.Published = in.Published
	article.EditTime = now
	if in.Published {
		article.PublishTime = &now
	} else {
		article.PublishTime = nil
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Delete removes an article and reports the outcome on the notification bus.
func (s *ArticleService) Delete(ctx context.Context, uid string, articleID uint) error {
	profile, err := s.resolveAuthor(ctx, uid)
	if err != nil {
		return err
	}

	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article.AuthorUID != profile.UID && profile.Role != models.RoleAdmin {
		return models.NewUnauthenticatedError("You can only delete your own articles")
	}

	if err := s.articles.Delete(ctx, articleID); err != nil {
		s.bus.Error(ctx, uid, "Failed to delete article")
		return err
	}
	s.bus.Success(ctx, uid, "Successfully deleted article")
	return nil
}

// resolveAuthor maps a uid to its profile. A missing uid or unresolvable
// profile reads as not signed in.
func (s *ArticleService) resolveAuthor(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, models.NewUnauthenticatedError("You must be signed in")
	}
	profile, err := s.profiles.GetByUID(ctx, uid)
	if err != nil {
		return nil, models.NewUnauthenticatedError("You must be signed in")
	}
	return profile, nil
}

func validateArticleFields(title, content string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 100000 characters)")
	}
	return nil
}
