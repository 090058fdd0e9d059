package models

import "time"

// Photo is an uploaded instrument-cluster image. The extracted odometer
// reading is denormalized onto the row; Failed marks uploads where the
// extractor found no candidate so operators can review them (the record is
// kept, never deleted).
type Photo struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint   `gorm:"index;not null;uniqueIndex:idx_user_photo"`
	User         User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FileName     string `gorm:"size:255;not null;uniqueIndex:idx_user_photo"`
	StorePath    string `gorm:"column:store_path;size:512"`
	ContentType  string `gorm:"size:128"`
	Width        int
	Height       int
	Odo          *int64
	TripID       *uint  `gorm:"index"`
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
