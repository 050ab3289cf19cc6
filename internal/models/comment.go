// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on an article in the Quill platform.
// Comments are append-only: they are never edited through this layer.
type Comment struct {
	ID                uint      `gorm:"primaryKey" json:"comment_id"`
	ArticleID         uint      `gorm:"index;not null" json:"article_id"`
	CommenterUID      string    `gorm:"index;not null" json:"commenter_uid"`
	CommenterUsername string    `json:"commenter_username"`
	CommenterImage    string    `json:"commenter_image"`
	Content           string    `gorm:"not null" json:"content"`
	PostTime          time.Time `gorm:"index" json:"post_time"`
	CreatedAt         time.Time `json:"created_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
