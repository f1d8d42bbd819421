package entities

import "time"

// SeenRecord is the relational form of one seen listing id.
type SeenRecord struct {
	ListingID   string    `gorm:"primaryKey;column:listing_id"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;autoCreateTime"`
}

func (SeenRecord) TableName() string {
	return "seen_listings"
}
