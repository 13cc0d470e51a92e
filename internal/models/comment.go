package models

import "time"

// Comment is a reader comment on a post. AuthorName is a snapshot of the
// author's display name taken when the comment was written.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	AuthorName string    `gorm:"size:100;not null" json:"author_name"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"-"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	CreatedAt  time.Time `json:"created_at"`
}
