package models

import "time"

// Favorite marks a product as wishlisted by a user. The unique pair index
// guarantees at most one row per (user, product).
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_favorites_user_product,unique" json:"user_id"`
	ProductID uint      `gorm:"not null;index:idx_favorites_user_product,unique" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	Product   Product   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product"`
}
