package service

import (
	"context"
	"testing"

	"quill/internal/identity"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/stretchr/testify/assert"
)

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn        func(context.Context, *models.Article) error
	getByIDFn       func(context.Context, uint) (*models.Article, error)
	listPublishedFn func(context.Context, *repository.Cursor, int) ([]*models.Article, error)
	listByAuthorFn  func(context.Context, string, *repository.Cursor, int) ([]*models.Article, error)
	updateFn        func(context.Context, *models.Article) error
	deleteFn        func(context.Context, uint) error
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article) error {
	return s.createFn(ctx, a)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) ListPublished(ctx context.Context, after *repository.Cursor, limit int) ([]*models.Article, error) {
	return s.listPublishedFn(ctx, after, limit)
}
func (s *articleRepoStub) ListByAuthor(ctx context.Context, uid string, after *repository.Cursor, limit int) ([]*models.Article, error) {
	return s.listByAuthorFn(ctx, uid, after, limit)
}
func (s *articleRepoStub) Update(ctx context.Context, a *models.Article) error {
	return s.updateFn(ctx, a)
}
func (s *articleRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn:  func(_ context.Context, _ *models.Article) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.Article, error) { return &models.Article{}, nil },
		listPublishedFn: func(_ context.Context, _ *repository.Cursor, _ int) ([]*models.Article, error) {
			return nil, nil
		},
		listByAuthorFn: func(_ context.Context, _ string, _ *repository.Cursor, _ int) ([]*models.Article, error) {
			return nil, nil
		},
		updateFn: func(_ context.Context, _ *models.Article) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	listByArticleFn func(context.Context, uint, *repository.Cursor, int) ([]*models.Comment, error)
	deleteFn        func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByArticle(ctx context.Context, articleID uint, after *repository.Cursor, limit int) ([]*models.Comment, error) {
	return s.listByArticleFn(ctx, articleID, after, limit)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		listByArticleFn: func(_ context.Context, _ uint, _ *repository.Cursor, _ int) ([]*models.Comment, error) {
			return nil, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	createFn   func(context.Context, *models.UserProfile) error
	getByUIDFn func(context.Context, string) (*models.UserProfile, error)
	updateFn   func(context.Context, *models.UserProfile) error
}

func (s *profileRepoStub) Create(ctx context.Context, p *models.UserProfile) error {
	return s.createFn(ctx, p)
}
func (s *profileRepoStub) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.getByUIDFn(ctx, uid)
}
func (s *profileRepoStub) Update(ctx context.Context, p *models.UserProfile) error {
	return s.updateFn(ctx, p)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		createFn: func(_ context.Context, _ *models.UserProfile) error { return nil },
		getByUIDFn: func(_ context.Context, uid string) (*models.UserProfile, error) {
			return &models.UserProfile{UID: uid, Username: "tester", Role: models.RoleReader}, nil
		},
		updateFn: func(_ context.Context, _ *models.UserProfile) error { return nil },
	}
}

// providerStub is a stub for identity.Provider.
type providerStub struct {
	registerFn         func(context.Context, string, string, identity.Traits) (*identity.Session, error)
	loginFn            func(context.Context, string, string) (*identity.Session, error)
	resumeFn           func(context.Context, string) (*identity.Account, error)
	logoutFn           func(context.Context, string) error
	sendRecoveryFn     func(context.Context, string) (string, error)
	completeRecoveryFn func(context.Context, string, string, string) error
	updateTraitsFn     func(context.Context, string, identity.Traits) error
}

func (s *providerStub) Register(ctx context.Context, email, password string, traits identity.Traits) (*identity.Session, error) {
	return s.registerFn(ctx, email, password, traits)
}
func (s *providerStub) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return s.loginFn(ctx, email, password)
}
func (s *providerStub) Resume(ctx context.Context, token string) (*identity.Account, error) {
	return s.resumeFn(ctx, token)
}
func (s *providerStub) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}
func (s *providerStub) SendRecoveryCode(ctx context.Context, email string) (string, error) {
	return s.sendRecoveryFn(ctx, email)
}
func (s *providerStub) CompleteRecovery(ctx context.Context, flowID, code, newPassword string) error {
	return s.completeRecoveryFn(ctx, flowID, code, newPassword)
}
func (s *providerStub) UpdateTraits(ctx context.Context, uid string, traits identity.Traits) error {
	return s.updateTraitsFn(ctx, uid, traits)
}

func noopProvider() *providerStub {
	return &providerStub{
		registerFn: func(_ context.Context, email, _ string, traits identity.Traits) (*identity.Session, error) {
			return &identity.Session{
				Token:   "session-token",
				Account: identity.Account{UID: "uid-new", Traits: traits},
			}, nil
		},
		loginFn: func(_ context.Context, email, _ string) (*identity.Session, error) {
			return &identity.Session{
				Token:   "session-token",
				Account: identity.Account{UID: "uid-1", Traits: identity.Traits{Email: email, Username: "tester"}},
			}, nil
		},
		resumeFn: func(_ context.Context, _ string) (*identity.Account, error) {
			return &identity.Account{UID: "uid-1", Traits: identity.Traits{Email: "tester@example.com", Username: "tester"}}, nil
		},
		logoutFn:           func(_ context.Context, _ string) error { return nil },
		sendRecoveryFn:     func(_ context.Context, _ string) (string, error) { return "flow-1", nil },
		completeRecoveryFn: func(_ context.Context, _, _, _ string) error { return nil },
		updateTraitsFn:     func(_ context.Context, _ string, _ identity.Traits) error { return nil },
	}
}

// blobStoreStub is a stub for storage.BlobStore.
type blobStoreStub struct {
	putFn       func(context.Context, string, []byte) error
	deleteFn    func(context.Context, string) error
	publicURLFn func(string) string
}

func (s *blobStoreStub) Put(ctx context.Context, path string, data []byte) error {
	return s.putFn(ctx, path, data)
}
func (s *blobStoreStub) Delete(ctx context.Context, path string) error {
	return s.deleteFn(ctx, path)
}
func (s *blobStoreStub) PublicURL(path string) string {
	return s.publicURLFn(path)
}

func noopBlobStore() *blobStoreStub {
	return &blobStoreStub{
		putFn:       func(_ context.Context, _ string, _ []byte) error { return nil },
		deleteFn:    func(_ context.Context, _ string) error { return nil },
		publicURLFn: func(path string) string { return "http://localhost:8460/media/" + path },
	}
}

// assertCode asserts that err is an AppError carrying the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Error(t, err)
	assert.Truef(t, models.IsCode(err, code), "expected code %s, got %s (%v)", code, models.CodeOf(err), err)
}
