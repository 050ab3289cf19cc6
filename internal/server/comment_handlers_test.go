package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"quill/internal/featureflags"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerCommentRoutes(app *fiber.App, s *Server) {
	app.Get("/api/articles/:id/comments", s.ListComments)
	app.Post("/api/articles/:id/comments", s.CreateComment)
}

func seedArticleComment(t *testing.T, db *gorm.DB, articleID uint, content string, postedAt time.Time) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		ArticleID:         articleID,
		CommenterUID:      "uid-1",
		CommenterUsername: "commenter",
		Content:           content,
		PostTime:          postedAt,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func TestListComments_Pagination(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)

	article := seedPublishedArticle(t, db, "uid-1", "discussed", time.Now().UTC())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedArticleComment(t, db, article.ID, fmt.Sprintf("comment %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	app := newTestApp("")
	registerCommentRoutes(app, s)

	type page struct {
		Comments        []models.Comment `json:"comments"`
		NextCursor      string           `json:"next_cursor"`
		EndOfCollection bool             `json:"end_of_collection"`
	}

	var first page
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/articles/%d/comments?limit=2", article.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &first)

	require.Len(t, first.Comments, 2)
	assert.False(t, first.EndOfCollection)
	assert.Equal(t, "comment 2", first.Comments[0].Content)
	require.NotEmpty(t, first.NextCursor)

	var second page
	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/articles/%d/comments?limit=2&after=%s", article.ID, first.NextCursor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &second)

	require.Len(t, second.Comments, 1)
	assert.True(t, second.EndOfCollection)
	assert.Equal(t, "comment 0", second.Comments[0].Content)
}

func TestListComments_MissingArticle(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)

	app := newTestApp("")
	registerCommentRoutes(app, s)

	resp := doJSON(t, app, http.MethodGet, "/api/articles/42/comments", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateComment_StampsCommenter(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-2", "replier", models.RoleReader)

	article := seedPublishedArticle(t, db, "uid-1", "open thread", time.Now().UTC())

	app := newTestApp("uid-2")
	registerCommentRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), fiber.Map{
		"content": "nice article",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Comment
	decodeBody(t, resp, &created)
	assert.Equal(t, "uid-2", created.CommenterUID)
	assert.Equal(t, "replier", created.CommenterUsername)
	assert.False(t, created.PostTime.IsZero())
}

func TestCreateComment_RequiresSession(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)

	article := seedPublishedArticle(t, db, "uid-1", "locked out", time.Now().UTC())

	app := newTestApp("")
	registerCommentRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), fiber.Map{
		"content": "anonymous",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateComment_KillSwitch(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	s.featureFlags = featureflags.NewManager("comments=off")
	seedProfile(t, db, "uid-2", "replier", models.RoleReader)

	article := seedPublishedArticle(t, db, "uid-1", "paused thread", time.Now().UTC())

	app := newTestApp("uid-2")
	registerCommentRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), fiber.Map{
		"content": "anyone here?",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateComment_EmptyContentRejected(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-2", "replier", models.RoleReader)

	article := seedPublishedArticle(t, db, "uid-1", "strict thread", time.Now().UTC())

	app := newTestApp("uid-2")
	registerCommentRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), fiber.Map{
		"content": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
