// Package models contains database model definitions.
package models

import "time"

// Setting is a named opaque value, used for stored options documents.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Value     []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}
