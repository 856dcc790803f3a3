package models

import "time"

// File is the metadata of an uploaded blob. UUID is the only identifier exposed in URLs.
type File struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         string    `gorm:"uniqueIndex;not null" json:"uuid"`
	Filename     string    `gorm:"not null" json:"filename"`
	OriginalName string    `gorm:"not null" json:"originalName"`
	MimeType     string    `gorm:"not null" json:"mimeType"`
	Size         int64     `gorm:"not null" json:"size"`
	Path         string    `gorm:"not null" json:"-"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
}
