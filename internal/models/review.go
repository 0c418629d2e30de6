package models

import "time"

// Review is feedback tied to a completed stay. At most one review exists per
// (user, listing) pair and the referenced booking must belong to the same
// pair. Published starts false and is set by a moderator; editing the comment
// resets it.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_user_listing" json:"user_id"`
	User      *User     `json:"-"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_reviews_user_listing" json:"listing_id"`
	Listing   *Listing  `json:"-"`
	BookingID uint      `gorm:"index;not null" json:"booking_id"`
	Booking   *Booking  `json:"-"`
	Rating    *int      `json:"rating,omitempty"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	Published bool      `gorm:"default:false" json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
