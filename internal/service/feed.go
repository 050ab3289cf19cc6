package service

import (
	"context"
	"sync"

	"quill/internal/models"
	"quill/internal/repository"
)

// DefaultPageSize is the page size feeds use when the caller does not pick one.
const DefaultPageSize = 10

// ArticleFeed is a stateful window over the published-article listing. It
// accumulates pages as the reader scrolls and guards against overlapping or
// out-of-order loads.
type ArticleFeed struct {
	repo     repository.ArticleRepository
	pageSize int

	mu        sync.Mutex
	items     []*models.Article
	cursor    *repository.Cursor
	loaded    bool
	exhausted bool
	inFlight  bool
	closed    bool
}

// NewArticleFeed creates a feed over published articles. pageSize <= 0 falls
// back to DefaultPageSize.
func NewArticleFeed(repo repository.ArticleRepository, pageSize int) *ArticleFeed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ArticleFeed{repo: repo, pageSize: pageSize}
}

// Load fetches the first page, replacing any previously accumulated items.
func (f *ArticleFeed) Load(ctx context.Context) ([]*models.Article, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("A page load is already in progress")
	}
	f.inFlight = true
	f.mu.Unlock()

	page, err := f.repo.ListPublished(ctx, nil, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if err != nil {
		return nil, err
	}

	f.items = page
	f.loaded = true
	f.exhausted = len(page) < f.pageSize
	f.cursor = cursorAfterArticles(page)
	return f.snapshot(), nil
}

// LoadNext appends the next page. Once the listing is exhausted it is a no-op
// that returns the accumulated items.
func (f *ArticleFeed) LoadNext(ctx context.Context) ([]*models.Article, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if !f.loaded {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed has not loaded its first page")
	}
	if f.exhausted {
		items := f.snapshot()
		f.mu.Unlock()
		return items, nil
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("A page load is already in progress")
	}
	f.inFlight = true
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.repo.ListPublished(ctx, cursor, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if err != nil {
		return nil, err
	}

	f.items = append(f.items, page...)
	f.exhausted = len(page) < f.pageSize
	if next := cursorAfterArticles(page); next != nil {
		f.cursor = next
	}
	return f.snapshot(), nil
}

// Items returns the accumulated window.
func (f *ArticleFeed) Items() []*models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// EndOfCollection reports whether the listing has been read to its end.
func (f *ArticleFeed) EndOfCollection() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhausted
}

// Close marks the feed dead. A load finishing after Close discards its
// result instead of mutating the window.
func (f *ArticleFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *ArticleFeed) snapshot() []*models.Article {
	out := make([]*models.Article, len(f.items))
	copy(out, f.items)
	return out
}

func cursorAfterArticles(page []*models.Article) *repository.Cursor {
	if len(page) == 0 {
		return nil
	}
	last := page[len(page)-1]
	if last.PublishTime == nil {
		return nil
	}
	return &repository.Cursor{Time: *last.PublishTime, ID: last.ID}
}

// CommentFeed is a stateful window over one article's comments, with the same
// load discipline as ArticleFeed.
type CommentFeed struct {
	repo      repository.CommentRepository
	articleID uint
	pageSize  int

	mu        sync.Mutex
	items     []*models.Comment
	cursor    *repository.Cursor
	loaded    bool
	exhausted bool
	inFlight  bool
	closed    bool
}

// NewCommentFeed creates a feed over an article's comments.
func NewCommentFeed(repo repository.CommentRepository, articleID uint, pageSize int) *CommentFeed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CommentFeed{repo: repo, articleID: articleID, pageSize: pageSize}
}

// Load fetches the first page, replacing any previously accumulated items.
func (f *CommentFeed) Load(ctx context.Context) ([]*models.Comment, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("A page load is already in progress")
	}
	f.inFlight = true
	f.mu.Unlock()

	page, err := f.repo.ListByArticle(ctx, f.articleID, nil, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if err != nil {
		return nil, err
	}

	f.items = page
	f.loaded = true
	f.exhausted = len(page) < f.pageSize
	f.cursor = cursorAfterComments(page)
	return f.snapshot(), nil
}

// LoadNext appends the next page. Once the listing is exhausted it is a no-op
// that returns the accumulated items.
func (f *CommentFeed) LoadNext(ctx context.Context) ([]*models.Comment, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if !f.loaded {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("Feed has not loaded its first page")
	}
	if f.exhausted {
		items := f.snapshot()
		f.mu.Unlock()
		return items, nil
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, models.NewFailedPreconditionError("A page load is already in progress")
	}
	f.inFlight = true
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.repo.ListByArticle(ctx, f.articleID, cursor, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return nil, models.NewFailedPreconditionError("Feed is closed")
	}
	if err != nil {
		return nil, err
	}

	f.items = append(f.items, page...)
	f.exhausted = len(page) < f.pageSize
	if next := cursorAfterComments(page); next != nil {
		f.cursor = next
	}
	return f.snapshot(), nil
}

// Items returns the accumulated window.
func (f *CommentFeed) Items() []*models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// EndOfCollection reports whether the listing has been read to its end.
func (f *CommentFeed) EndOfCollection() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhausted
}

// Close marks the feed dead.
func (f *CommentFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *CommentFeed) snapshot() []*models.Comment {
	out := make([]*models.Comment, len(f.items))
	copy(out, f.items)
	return out
}

func cursorAfterComments(page []*models.Comment) *repository.Cursor {
	if len(page) == 0 {
		return nil
	}
	last := page[len(page)-1]
	return &repository.Cursor{Time: last.PostTime, ID: last.ID}
}
