package models

import "time"

// Upload describes a file stored through the upload endpoint. The content lives in the blob store under Key.
type Upload struct {
	Key         string `gorm:"primaryKey;size:64"`
	Entity      string `gorm:"index;size:100"`
	Field       string `gorm:"size:100"`
	Name        string `gorm:"size:255"`
	ContentType string `gorm:"size:255"`
	Size        int64
	CreatedAt   time.Time
}

// Blob is the content of an upload when the database itself is the blob store.
type Blob struct {
	Key       string `gorm:"primaryKey;size:255"`
	Data      []byte `gorm:"type:blob"`
	ExpiresAt int64
}
