package models

// Dashboard is the persisted row; the three series columns hold JSON arrays
// decoded by the series package. At most one row per customer.
type Dashboard struct {
	Base
	CustomerID    uint   `gorm:"not null;uniqueIndex"`
	Name          string `gorm:"not null"`
	Month         string `gorm:"type:text;not null"`
	PricePerMonth string `gorm:"column:price_per_month;type:text;not null"`
	Total         string `gorm:"type:text;not null"`

	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
