// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Role is the authorization level of a user profile.
type Role string

const (
	RoleReader      Role = "reader"
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// DefaultAvatarURL is substituted when a sign-up supplies no profile image or
// one that fails the URL format check.
const DefaultAvatarURL = "https://t4.ftcdn.net/jpg/00/64/67/63/240_F_64676383_LdbmhiNM6Ypzb3FM4PPuFP9rHe7ri8Ju.jpg"

// UserProfile mirrors an identity-provider account into the document store.
// Exactly one profile exists per identity UID, created at first sign-up.
type UserProfile struct {
	UID              string    `gorm:"primaryKey" json:"uid"`
	Username         string    `gorm:"not null" json:"username"`
	Role             Role      `gorm:"not null;default:reader" json:"role"`
	ProfileImage     string    `json:"profile_image"`
	PromotionRequest *string   `json:"promotion_request,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
