package models

import "time"

// Banner is a promotional image shown on the storefront homepage.
// Only active banners are served publicly, ordered by SortOrder.
type Banner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Image     string    `gorm:"size:512;not null" json:"image"`
	TargetURL string    `gorm:"size:512" json:"target_url"`
	Active    bool      `gorm:"index" json:"active"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
