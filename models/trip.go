package models

import "time"

// Trip is one recorded journey belonging to a user. OdoEnd is the reading
// extracted from the cluster photo (or entered manually when extraction
// failed); Fare comes from the fare-route table when the route is known.
type Trip struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint      `gorm:"index;not null"`
	Date        time.Time `gorm:"not null"`
	Origin      string    `gorm:"size:128"`
	Destination string    `gorm:"size:128"`
	Fare        int64
	OdoStart    int64
	OdoEnd      int64 `gorm:"not null"`
	// Manual marks readings typed in after the extractor reported no
	// candidate.
	Manual  bool  `gorm:"default:false"`
	PhotoID *uint `gorm:"index"`
}

// Distance returns the odometer delta, zero when the start is unknown.
func (t Trip) Distance() int64 {
	if t.OdoStart <= 0 || t.OdoEnd <= t.OdoStart {
		return 0
	}
	return t.OdoEnd - t.OdoStart
}
