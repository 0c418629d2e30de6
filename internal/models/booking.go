package models

import "time"

// Booking statuses. A booking is created Pending, moves to Confirmed or
// Cancelled by the listing owner, to Cancelled by the renter within the
// cancellation window, and to Completed once its end date has passed while
// Confirmed. Rows are never deleted by transitions.
const (
	BookingPending   = "Pending"
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
	BookingCompleted = "Completed"
)

var BookingStatuses = []string{
	BookingPending,
	BookingConfirmed,
	BookingCancelled,
	BookingCompleted,
}

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s string) bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Booking is a reservation of a listing for the half-open date range
// [StartDate, EndDate). Price is the derived total: nights times the
// listing's nightly price.
type Booking struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	User          *User     `json:"-"`
	ListingID     uint      `gorm:"index;not null" json:"listing_id"`
	Listing       *Listing  `json:"listing,omitempty"`
	Price         float64   `json:"price"`
	StartDate     time.Time `gorm:"index;not null" json:"start_date"`
	EndDate       time.Time `gorm:"index;not null" json:"end_date"`
	Status        string    `gorm:"size:20;index;default:Pending" json:"status"`
	MsgToLandlord string    `gorm:"type:text" json:"msg_to_landlord,omitempty"`
	MsgToUser     string    `gorm:"type:text" json:"msg_to_user,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Nights returns the number of nights covered by the booking.
func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

// Overlaps reports whether the booking's range overlaps [start, end) under
// half-open interval semantics: touching boundaries do not conflict.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}
