package models

import "time"

// Record is one row of an entity collection. Data holds the row as a JSON object without its id.
type Record struct {
	ID        uint64 `gorm:"primaryKey"`
	Entity    string `gorm:"index;size:100;not null"`
	Data      []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
