package models

import "time"

// Article is a blog post created by a user. The author is fixed at creation
// time and only the author may update or delete the record.
type Article struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Published  bool       `gorm:"not null;default:true" json:"published"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Categories []Category `gorm:"many2many:article_categories;" json:"categories"`
	Comments   []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}

// OwnerID implements Owned.
func (a *Article) OwnerID() uint { return a.UserID }
