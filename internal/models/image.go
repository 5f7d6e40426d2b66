package models

// Image is the metadata of an uploaded product picture; the bytes live on disk.
type Image struct {
	Base
	CustomerID uint   `gorm:"index;not null" json:"customer_id"`
	Filename   string `gorm:"not null" json:"filename"`
	Path       string `gorm:"not null" json:"-"`
	Size       int64  `json:"size"`

	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
