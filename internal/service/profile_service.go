package service

import (
	"context"
	"log/slog"

	"quill/internal/identity"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

// ProfileService owns profile reads and updates, keeping the identity
// provider's traits in step with the profile row.
type ProfileService struct {
	profiles repository.ProfileRepository
	provider identity.Provider
}

type UpdateProfileInput struct {
	UID          string
	Username     string
	ProfileImage string
}

func NewProfileService(profiles repository.ProfileRepository, provider identity.Provider) *ProfileService {
	return &ProfileService{profiles: profiles, provider: provider}
}

func (s *ProfileService) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, models.NewUnauthenticatedError("You must be signed in")
	}
	return s.profiles.GetByUID(ctx, uid)
}

// Update overwrites the profile's mutable fields and mirrors them into the
// provider's traits. The trait write is best-effort: the profile row is the
// source of truth for rendering.
func (s *ProfileService) Update(ctx context.Context, in UpdateProfileInput) (*models.UserProfile, error) {
	profile, err := s.Get(ctx, in.UID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Username = in.Username
	}
	if in.ProfileImage != "" {
		if err := validation.ValidateImageURL(in.ProfileImage); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.ProfileImage = in.ProfileImage
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.provider.UpdateTraits(ctx, profile.UID, identity.Traits{
		Username: profile.Username,
		Picture:  profile.ProfileImage,
	}); err != nil {
		slog.Warn("trait sync failed", "uid", profile.UID, "error", err)
	}

	return profile, nil
}

// RequestPromotion records a reader's request to become a contributor. An
// already-promoted profile cannot request again.
func (s *ProfileService) RequestPromotion(ctx context.Context, uid, reason string) (*models.UserProfile, error) {
	profile, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if profile.Role != models.RoleReader {
		return nil, models.NewFailedPreconditionError("Only readers can request promotion")
	}
	if reason == "" {
		return nil, models.NewValidationError("A reason is required")
	}

	profile.PromotionRequest = &reason
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ApplyPromotion grants the contributor role and clears the pending request.
// Only admins may call it.
func (s *ProfileService) ApplyPromotion(ctx context.Context, adminUID, targetUID string) (*models.UserProfile, error) {
	admin, err := s.Get(ctx, adminUID)
	if err != nil {
		return nil, err
	}
	if admin.Role != models.RoleAdmin {
		return nil, models.NewFailedPreconditionError("Only admins can promote profiles")
	}

	profile, err := s.profiles.GetByUID(ctx, targetUID)
	if err != nil {
		return nil, err
	}
	profile.Role = models.RoleContributor
	profile.PromotionRequest = nil
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
