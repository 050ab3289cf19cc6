package repository

import (
	"context"
	"errors"

	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines interface for user profile operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.UserProfile) error
	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)
	Update(ctx context.Context, profile *models.UserProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create provisions the profile row for a new account. Re-registration of an
// existing uid is a no-op so provider retries stay idempotent.
func (r *profileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).
		Where(models.UserProfile{UID: profile.UID}).
		FirstOrCreate(profile).Error
}

func (r *profileRepository) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := cache.Aside(ctx, cache.ProfileKey(uid), &profile, cache.ProfileTTL, func() error {
		return r.db.WithContext(ctx).Where("uid = ?", uid).First(&profile).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", uid)
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return err
	}
	cache.InvalidateProfile(ctx, profile.UID)
	return nil
}
