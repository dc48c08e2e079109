package models

import "time"

// Product is a catalog item. Price is stored in rupiah as an integer to
// avoid floating point drift; variant prices override it when present.
type Product struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CategoryID  uint             `gorm:"index;not null" json:"category_id"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	Slug        string           `gorm:"size:288;not null;uniqueIndex" json:"slug"`
	Description string           `gorm:"type:text" json:"description"`
	Price       int64            `gorm:"not null;default:0" json:"price"`
	Image       string           `gorm:"size:512" json:"image"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Category    Category         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Variants    []ProductVariant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants"`
}

// ProductVariant is a purchasable variation of a product (size, color, ...).
type ProductVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Price     int64     `gorm:"not null;default:0" json:"price"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
