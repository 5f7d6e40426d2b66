package models

import "time"

// Base holds the columns shared by every table.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tables lists the models migrated at startup, parents before children.
var Tables = []interface{}{
	&Customer{},
	&Image{},
	&Product{},
	&Dashboard{},
}
