package models

import "time"

// Property types a listing can be published as.
const (
	PropertyTypeApartment = "Apartment"
	PropertyTypeHouse     = "House"
	PropertyTypeStudio    = "Studio"
	PropertyTypeVilla     = "Villa"
	PropertyTypeRoom      = "Room"
)

var PropertyTypes = []string{
	PropertyTypeApartment,
	PropertyTypeHouse,
	PropertyTypeStudio,
	PropertyTypeVilla,
	PropertyTypeRoom,
}

// Listing is a rentable property record. The rating aggregates
// (RatingsSum, RatingsCount, ReviewsCount) are only ever written by the
// review aggregate recompute; nothing else may touch them.
type Listing struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"index;not null" json:"user_id"`
	User                  *User      `json:"-"`
	Title                 string     `gorm:"size:255;not null" json:"title"`
	Description           string     `gorm:"type:text;not null" json:"description"`
	Address               string     `gorm:"size:255" json:"address"`
	Location              string     `gorm:"size:40" json:"location"`
	City                  string     `gorm:"size:40" json:"city"`
	Country               string     `gorm:"size:40" json:"country"`
	Price                 float64    `gorm:"not null" json:"price"`
	Rooms                 int        `json:"rooms"`
	PropertyType          string     `gorm:"size:50" json:"property_type"`
	Status                bool       `gorm:"default:true" json:"status"`
	Verified              bool       `gorm:"default:false" json:"verified"`
	Rejected              bool       `gorm:"default:false" json:"rejected"`
	RejectionReason       string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	AvailabilityStartDate *time.Time `json:"availability_start_date,omitempty"`
	AvailabilityEndDate   *time.Time `json:"availability_end_date,omitempty"`
	Latitude              *float64   `json:"latitude,omitempty"`
	Longitude             *float64   `json:"longitude,omitempty"`
	ContactInfo           string     `gorm:"size:255" json:"contact_info,omitempty"`
	ViewsCount            int        `gorm:"default:0" json:"views_count"`
	RatingsSum            int        `gorm:"default:0" json:"ratings_sum"`
	RatingsCount          int        `gorm:"default:0" json:"ratings_count"`
	ReviewsCount          int        `gorm:"default:0" json:"reviews_count"`
	Tags                  []Tag      `gorm:"many2many:listing_tags" json:"tags"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// AverageRating returns the rounded average rating, 0 when unrated.
func (l *Listing) AverageRating() float64 {
	if l.RatingsCount == 0 {
		return 0
	}
	avg := float64(l.RatingsSum) / float64(l.RatingsCount)
	return float64(int(avg*10+0.5)) / 10
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}
