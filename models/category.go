package models

import "time"

// Category is a flat tag attached to articles. Categories carry no ownership:
// any authenticated user may create one, nobody mutates them afterwards.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Articles    []Article `gorm:"many2many:article_categories;" json:"-"`
}
