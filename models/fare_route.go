package models

import "time"

// FareRoute is a seeded lookup row mapping an origin/destination pair to its
// fixed fare.
type FareRoute struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Origin      string `gorm:"size:128;not null;uniqueIndex:idx_route_pair"`
	Destination string `gorm:"size:128;not null;uniqueIndex:idx_route_pair"`
	Fare        int64  `gorm:"not null"`
}
