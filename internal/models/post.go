package models

import "time"

// PostDateLayout is the human-readable format of Post.Date, e.g. "April 05, 2024".
const PostDateLayout = "January 02, 2006"

// Post represents a blog post. Author and Date are fixed at creation.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Title    string    `gorm:"size:250;not null;uniqueIndex" json:"title"`
	Subtitle string    `gorm:"size:250;not null" json:"subtitle"`
	Date     string    `gorm:"size:250;not null" json:"date"`
	Body     string    `gorm:"type:text;not null" json:"body"`
	ImageURL string    `gorm:"column:img_url;size:250;not null" json:"img_url"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->;-:migration" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
