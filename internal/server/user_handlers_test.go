package server

import (
	"context"
	"net/http"
	"testing"

	"quill/internal/identity"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUserRoutes(app *fiber.App, s *Server) {
	app.Get("/api/users/me", s.GetMyProfile)
	app.Put("/api/users/me", s.UpdateMyProfile)
	app.Post("/api/users/me/promotion", s.RequestPromotion)
	app.Post("/api/users/:uid/promote", s.ApplyPromotion)
}

func TestGetMyProfile(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-1", "tester", models.RoleReader)

	app := newTestApp("uid-1")
	registerUserRoutes(app, s)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.UserProfile
	decodeBody(t, resp, &profile)
	assert.Equal(t, "uid-1", profile.UID)
	assert.Equal(t, "tester", profile.Username)
}

func TestUpdateMyProfile_SyncsProviderTraits(t *testing.T) {
	db := setupHandlerTestDB(t)
	var synced identity.Traits
	provider := &stubProvider{}
	s := newTestServer(t, db, &traitRecordingProvider{stubProvider: provider, synced: &synced})
	seedProfile(t, db, "uid-1", "tester", models.RoleReader)

	app := newTestApp("uid-1")
	registerUserRoutes(app, s)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", fiber.Map{
		"username":      "renamed",
		"profile_image": "https://cdn.example.com/me.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.UserProfile
	decodeBody(t, resp, &profile)
	assert.Equal(t, "renamed", profile.Username)
	assert.Equal(t, "https://cdn.example.com/me.png", profile.ProfileImage)
	assert.Equal(t, "renamed", synced.Username)

	var stored models.UserProfile
	require.NoError(t, db.First(&stored, "uid = ?", "uid-1").Error)
	assert.Equal(t, "renamed", stored.Username)
}

// traitRecordingProvider captures UpdateTraits calls.
type traitRecordingProvider struct {
	*stubProvider
	synced *identity.Traits
}

func (p *traitRecordingProvider) UpdateTraits(ctx context.Context, uid string, traits identity.Traits) error {
	*p.synced = traits
	return nil
}

func TestUpdateMyProfile_RejectsBadUsername(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-1", "tester", models.RoleReader)

	app := newTestApp("uid-1")
	registerUserRoutes(app, s)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", fiber.Map{
		"username": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPromotionFlow(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-reader", "aspirant", models.RoleReader)
	seedProfile(t, db, "uid-admin", "chief", models.RoleAdmin)

	readerApp := newTestApp("uid-reader")
	registerUserRoutes(readerApp, s)

	resp := doJSON(t, readerApp, http.MethodPost, "/api/users/me/promotion", fiber.Map{
		"reason": "I write a lot",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var pending models.UserProfile
	require.NoError(t, db.First(&pending, "uid = ?", "uid-reader").Error)
	require.NotNil(t, pending.PromotionRequest)
	assert.Equal(t, "I write a lot", *pending.PromotionRequest)

	adminApp := newTestApp("uid-admin")
	registerUserRoutes(adminApp, s)

	resp = doJSON(t, adminApp, http.MethodPost, "/api/users/uid-reader/promote", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var promoted models.UserProfile
	require.NoError(t, db.First(&promoted, "uid = ?", "uid-reader").Error)
	assert.Equal(t, models.RoleContributor, promoted.Role)
	assert.Nil(t, promoted.PromotionRequest)
}

func TestApplyPromotion_NonAdminRejected(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-reader", "aspirant", models.RoleReader)
	seedProfile(t, db, "uid-other", "bystander", models.RoleContributor)

	app := newTestApp("uid-other")
	registerUserRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, "/api/users/uid-reader/promote", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRequestPromotion_ContributorRejected(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	seedProfile(t, db, "uid-writer", "writer", models.RoleContributor)

	app := newTestApp("uid-writer")
	registerUserRoutes(app, s)

	resp := doJSON(t, app, http.MethodPost, "/api/users/me/promotion", fiber.Map{
		"reason": "more power",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
