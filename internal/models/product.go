package models

import "github.com/shopspring/decimal"

// Product belongs to exactly one customer. Every mutation triggers a
// dashboard recompute for that customer.
type Product struct {
	Base
	CustomerID  uint            `gorm:"index;not null" json:"customer_id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageID     *uint           `gorm:"index" json:"image_id,omitempty"`

	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Image    *Image   `gorm:"foreignKey:ImageID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"image,omitempty"`
}
