package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stayspot/server/internal/models"
)

func (d *Database) GetBooking(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := d.db.Preload("Listing").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// OverlapExists reports whether any booking on the listing with one of the
// given statuses overlaps [start, end) under half-open semantics. The
// excludeID lets a re-confirmation check skip the booking being confirmed.
func OverlapExists(tx *gorm.DB, listingID uint, start, end time.Time, excludeID uint, statuses []string) (bool, error) {
	query := tx.Model(&models.Booking{}).
		Where("listing_id = ? AND status IN ?", listingID, statuses).
		Where("start_date < ? AND end_date > ?", end, start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// BookingListOptions selects and orders a booking listing. Exactly one of
// RenterID / OwnerID is set: the renter view lists the user's own bookings,
// the landlord view lists bookings on the user's listings.
type BookingListOptions struct {
	RenterID uint
	OwnerID  uint
	Statuses []string
	SortBy   string
	Order    string
	Limit    int
	Offset   int
}

var bookingSortColumns = map[string]string{
	"status":        "bookings.status",
	"start_date":    "bookings.start_date",
	"end_date":      "bookings.end_date",
	"created_at":    "bookings.created_at",
	"listing_title": "listings.title",
}

func (d *Database) ListBookings(opts BookingListOptions) ([]models.Booking, int64, error) {
	query := d.db.Model(&models.Booking{}).
		Joins("JOIN listings ON listings.id = bookings.listing_id")

	if opts.RenterID != 0 {
		query = query.Where("bookings.user_id = ?", opts.RenterID)
	}
	if opts.OwnerID != 0 {
		query = query.Where("listings.user_id = ?", opts.OwnerID)
	}
	if len(opts.Statuses) > 0 {
		query = query.Where("bookings.status IN ?", opts.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := bookingSortColumns[opts.SortBy]
	direction := "ASC"
	if opts.Order == "desc" {
		direction = "DESC"
	}
	if !ok {
		// Unknown sort key falls back to newest first
		column, direction = "bookings.created_at", "DESC"
	}

	var bookings []models.Booking
	err := query.Preload("Listing").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&bookings).Error
	return bookings, total, err
}

// ConfirmedBookings returns the confirmed date ranges for a listing, used to
// render its availability calendar.
func (d *Database) ConfirmedBookings(listingID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.db.Where("listing_id = ? AND status = ?", listingID, models.BookingConfirmed).
		Order("start_date ASC").Find(&bookings).Error
	return bookings, err
}

// CompletePastDueBookings transitions confirmed bookings whose end date has
// passed to Completed. Idempotent, safe to re-run and to run concurrently
// with user requests.
func (d *Database) CompletePastDueBookings(now time.Time) (int64, error) {
	res := d.db.Model(&models.Booking{}).
		Where("status = ? AND end_date < ?", models.BookingConfirmed, now).
		Update("status", models.BookingCompleted)
	return res.RowsAffected, res.Error
}
