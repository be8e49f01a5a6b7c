package models

import "time"

// User is an account that owns articles, comments and attachments.
// IsAuthor grants the editorial capability: authors may update, delete and
// pick a best answer on any article, not only their own.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	IsAuthor  bool      `gorm:"not null;default:false" json:"is_author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Articles  []Article `gorm:"foreignKey:UserID" json:"articles,omitempty"`
}
