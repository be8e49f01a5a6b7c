// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is the primary content entity. Pin floats an article to the top of
// listings; SolutionID references the comment accepted as the answer.
type Article struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"not null" json:"title"`
	Body         string       `gorm:"type:text;not null" json:"body"`
	Pin          bool         `gorm:"not null;default:false;index" json:"pin"`
	Notification bool         `gorm:"not null;default:false" json:"notification"`
	SolutionID   *uint        `gorm:"index" json:"solution_id,omitempty"`
	Solution     *Comment     `gorm:"foreignKey:SolutionID" json:"solution,omitempty"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	User         User         `gorm:"foreignKey:UserID" json:"user"`
	Tags         []Tag        `gorm:"many2many:article_tags" json:"tags"`
	Comments     []Comment    `gorm:"foreignKey:ArticleID" json:"comments,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:ArticleID" json:"attachments,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Solved reports whether an accepted answer has been picked.
func (a *Article) Solved() bool {
	return a.SolutionID != nil
}

// ArticlePage is a page of list results with pagination metadata.
type ArticlePage struct {
	Items    []*Article `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Comment is a threaded reply on an article. ParentID is nil for top-level
// comments. Soft-deleted comments stay visible in threads as tombstones.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ArticleID uint           `gorm:"not null;index" json:"article_id"`
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	Replies   []Comment      `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
