package models

import "time"

// Article is a piece of writing owned by the user that created it.
type Article struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	Published bool      `json:"published" gorm:"not null;default:false;index"`
	MinToRead int       `json:"min_to_read" gorm:"not null;default:0"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}
