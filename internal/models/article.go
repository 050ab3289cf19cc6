// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Article represents a blog article in the Quill platform.
//
// PublishTime is non-nil if and only if Published is true. It is set at
// publish time and cleared on un-publish; re-publishing stamps a fresh time.
type Article struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AuthorUID      string     `gorm:"index;not null" json:"author_uid"`
	AuthorUsername string     `json:"author_username"`
	AuthorImage    string     `json:"author_image"`
	Title          string     `gorm:"not null" json:"title"`
	Content        string     `gorm:"not null" json:"content"`
	HeaderImage    string     `json:"header_image"`
	Published      bool       `gorm:"index" json:"published"`
	PublishTime    *time.Time `gorm:"index" json:"publish_time"`
	EditTime       time.Time  `json:"edit_time"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// ArticlePreview is the read-only projection of an Article used for list rendering.
type ArticlePreview struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	AuthorUID      string     `json:"author_uid"`
	AuthorUsername string     `json:"author_username"`
	AuthorImage    string     `json:"author_image"`
	HeaderImage    string     `json:"header_image"`
	PublishTime    *time.Time `json:"publish_time"`
}

// Preview derives the list projection of the article.
func (a *Article) Preview() ArticlePreview {
	return ArticlePreview{
		ID:             a.ID,
		Title:          a.Title,
		AuthorUID:      a.AuthorUID,
		AuthorUsername: a.AuthorUsername,
		AuthorImage:    a.AuthorImage,
		HeaderImage:    a.HeaderImage,
		PublishTime:    a.PublishTime,
	}
}
