package models

import "time"

// Attachment is a file uploaded by a user. ArticleID stays nil until the
// attachment is associated with an article on create or update.
type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ArticleID    *uint     `gorm:"index" json:"article_id,omitempty"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	FileName     string    `gorm:"not null;uniqueIndex" json:"file_name"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
