package models

import "time"

// Tag is a labeled category. Slug is the URL-safe external identifier.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"not null" json:"name"`
	Articles  []Article `gorm:"many2many:article_tags" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
