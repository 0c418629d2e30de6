// Package booking implements the booking lifecycle: creation against a
// listing's confirmed availability, the role-gated status state machine, and
// the past-due completion sweep.
package booking

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"stayspot/server/config"
	"stayspot/server/internal/access"
	"stayspot/server/internal/apperr"
	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

// Renter-side and landlord-side actions accepted by Transition.
const (
	ActionCancel  = "cancel"
	ActionConfirm = "confirm"
	ActionDecline = "decline"
)

type Engine struct {
	db     *database.Database
	policy *access.Policy
	cfg    *config.Config
	logger *logrus.Logger
	nowFn  func() time.Time
}

func NewEngine(db *database.Database, policy *access.Policy, cfg *config.Config, logger *logrus.Logger) *Engine {
	return &Engine{
		db:     db,
		policy: policy,
		cfg:    cfg,
		logger: logger,
		nowFn:  time.Now,
	}
}

// today returns the current date truncated to midnight UTC; all range checks
// compare whole days.
func (e *Engine) today() time.Time {
	return DateOnly(e.nowFn())
}

// DateOnly normalizes a timestamp to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// conflictStatuses returns the booking statuses that block a date range.
// Confirmed-only by default; the pending-conflict toggle widens the scan so
// speculative pending bookings also reserve their dates.
func (e *Engine) conflictStatuses() []string {
	if e.cfg.Booking.PendingConflictCheck {
		return []string{models.BookingConfirmed, models.BookingPending}
	}
	return []string{models.BookingConfirmed}
}

func (e *Engine) validateRange(start, end time.Time) error {
	today := e.today()
	if start.Before(today) || end.Before(today) {
		return apperr.New(apperr.KindInvalidRange, "start date and end date must not be in the past")
	}
	if start.After(end) {
		return apperr.New(apperr.KindInvalidRange, "end date must be after start date")
	}
	return nil
}

// Create places a new Pending booking for the renter. The overlap check and
// insert run under the listing's lock inside one transaction, so two
// concurrent requests for the same dates cannot both pass the check.
func (e *Engine) Create(actor *models.User, listingID uint, start, end time.Time, msgToLandlord string) (*models.Booking, error) {
	listing, err := e.db.GetListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}
	if !e.policy.CanCreateBooking(actor, listing) {
		return nil, apperr.PermissionDenied()
	}

	start, end = DateOnly(start), DateOnly(end)
	if err := e.validateRange(start, end); err != nil {
		return nil, err
	}

	nights := int(end.Sub(start).Hours() / 24)
	booking := &models.Booking{
		UserID:        actor.ID,
		ListingID:     listing.ID,
		Price:         float64(nights) * listing.Price,
		StartDate:     start,
		EndDate:       end,
		Status:        models.BookingPending,
		MsgToLandlord: msgToLandlord,
	}

	err = e.db.WithListingLock(listing.ID, func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			conflict, err := database.OverlapExists(tx, listing.ID, start, end, 0, e.conflictStatuses())
			if err != nil {
				return err
			}
			if conflict {
				return apperr.New(apperr.KindConflict, "the listing is not available for the selected dates")
			}
			return tx.Create(booking).Error
		})
	})
	if err != nil {
		return nil, err
	}

	booking.Listing = listing
	e.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"listing_id": listing.ID,
		"user_id":    actor.ID,
	}).Info("Booking created")
	return booking, nil
}

// Transition drives the status state machine:
//
//	Pending   --cancel  (renter)--> Cancelled
//	Pending   --confirm (owner) --> Confirmed   (guard: no confirmed overlap)
//	Pending   --decline (owner) --> Cancelled
//	Confirmed --cancel  (renter)--> Cancelled   (guard: cancellation window)
//
// Transitions never delete the row. msg is stored on the side matching the
// actor: landlord actions write msg_to_user, renter actions msg_to_landlord.
func (e *Engine) Transition(actor *models.User, bookingID uint, action, msg string) (*models.Booking, error) {
	booking, err := e.db.GetBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking")
	}

	switch action {
	case ActionConfirm:
		return e.confirm(actor, booking, msg)
	case ActionDecline:
		return e.decline(actor, booking, msg)
	case ActionCancel:
		return e.cancel(actor, booking, msg)
	default:
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown action %q", action)
	}
}

func (e *Engine) confirm(actor *models.User, booking *models.Booking, msg string) (*models.Booking, error) {
	if !e.policy.CanConfirm(actor, booking) {
		return nil, apperr.PermissionDenied()
	}
	if booking.Status != models.BookingPending {
		return nil, apperr.Newf(apperr.KindInvalidInput, "cannot confirm a %s booking", booking.Status)
	}

	err := e.db.WithListingLock(booking.ListingID, func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			// The range may have been taken since the booking was placed;
			// re-check, excluding the booking being confirmed.
			conflict, err := database.OverlapExists(tx, booking.ListingID,
				booking.StartDate, booking.EndDate, booking.ID,
				[]string{models.BookingConfirmed})
			if err != nil {
				return err
			}
			if conflict {
				return apperr.New(apperr.KindConflict, "the listing is no longer available for the selected dates")
			}

			booking.Status = models.BookingConfirmed
			if msg != "" {
				booking.MsgToUser = msg
			}
			return tx.Omit("Listing", "User").Save(booking).Error
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithField("booking_id", booking.ID).Info("Booking confirmed")
	return booking, nil
}

func (e *Engine) decline(actor *models.User, booking *models.Booking, msg string) (*models.Booking, error) {
	if !e.policy.CanConfirm(actor, booking) {
		return nil, apperr.PermissionDenied()
	}
	if booking.Status != models.BookingPending {
		return nil, apperr.Newf(apperr.KindInvalidInput, "cannot decline a %s booking", booking.Status)
	}

	booking.Status = models.BookingCancelled
	if msg != "" {
		booking.MsgToUser = msg
	}
	if err := e.db.GetDB().Omit("Listing", "User").Save(booking).Error; err != nil {
		return nil, err
	}

	e.logger.WithField("booking_id", booking.ID).Info("Booking declined")
	return booking, nil
}

func (e *Engine) cancel(actor *models.User, booking *models.Booking, msg string) (*models.Booking, error) {
	if !e.policy.IsRenter(actor, booking) {
		return nil, apperr.PermissionDenied()
	}

	switch booking.Status {
	case models.BookingPending:
		// Pending bookings can always be withdrawn.
	case models.BookingConfirmed:
		daysUntilStart := int(booking.StartDate.Sub(e.today()).Hours() / 24)
		if daysUntilStart < e.cfg.Booking.CancellationWindowDays {
			return nil, apperr.Newf(apperr.KindCancellationWindowClosed,
				"cannot cancel a confirmed booking within %d days of the start date",
				e.cfg.Booking.CancellationWindowDays)
		}
	default:
		return nil, apperr.Newf(apperr.KindInvalidInput, "cannot cancel a %s booking", booking.Status)
	}

	booking.Status = models.BookingCancelled
	if msg != "" {
		booking.MsgToLandlord = msg
	}
	if err := e.db.GetDB().Omit("Listing", "User").Save(booking).Error; err != nil {
		return nil, err
	}

	e.logger.WithField("booking_id", booking.ID).Info("Booking cancelled")
	return booking, nil
}

// UpdateInput carries the renter-editable booking fields; nil pointers leave
// the current value.
type UpdateInput struct {
	StartDate     *time.Time
	EndDate       *time.Time
	MsgToLandlord *string
}

// Update lets the renter edit dates or the landlord message. Date edits
// re-validate the range, re-check conflicts excluding the booking itself and
// recompute the price; changing the dates of a Confirmed booking drops it
// back to Pending for the landlord to re-approve.
func (e *Engine) Update(actor *models.User, bookingID uint, input UpdateInput) (*models.Booking, error) {
	booking, err := e.db.GetBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking")
	}
	if !e.policy.IsRenter(actor, booking) {
		return nil, apperr.PermissionDenied()
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
		return nil, apperr.Newf(apperr.KindInvalidInput, "cannot edit a %s booking", booking.Status)
	}

	if input.MsgToLandlord != nil {
		booking.MsgToLandlord = *input.MsgToLandlord
	}

	datesChanged := input.StartDate != nil || input.EndDate != nil
	if !datesChanged {
		if err := e.db.GetDB().Omit("Listing", "User").Save(booking).Error; err != nil {
			return nil, err
		}
		return booking, nil
	}

	if booking.Status == models.BookingConfirmed {
		daysUntilStart := int(booking.StartDate.Sub(e.today()).Hours() / 24)
		if daysUntilStart < e.cfg.Booking.CancellationWindowDays {
			return nil, apperr.New(apperr.KindCancellationWindowClosed,
				"cannot change the dates of a confirmed booking this close to the start date")
		}
	}

	start, end := booking.StartDate, booking.EndDate
	if input.StartDate != nil {
		start = DateOnly(*input.StartDate)
	}
	if input.EndDate != nil {
		end = DateOnly(*input.EndDate)
	}
	if err := e.validateRange(start, end); err != nil {
		return nil, err
	}

	err = e.db.WithListingLock(booking.ListingID, func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			conflict, err := database.OverlapExists(tx, booking.ListingID, start, end,
				booking.ID, e.conflictStatuses())
			if err != nil {
				return err
			}
			if conflict {
				return apperr.New(apperr.KindConflict, "the listing is not available for the selected dates")
			}

			if booking.Status == models.BookingConfirmed {
				booking.Status = models.BookingPending
			}
			booking.StartDate = start
			booking.EndDate = end
			nights := int(end.Sub(start).Hours() / 24)
			booking.Price = float64(nights) * booking.Listing.Price
			return tx.Omit("Listing", "User").Save(booking).Error
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithField("booking_id", booking.ID).Info("Booking updated")
	return booking, nil
}

// Get returns one booking to its renter or the listing owner.
func (e *Engine) Get(actor *models.User, bookingID uint) (*models.Booking, error) {
	booking, err := e.db.GetBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking")
	}
	if !e.policy.CanViewBooking(actor, booking) {
		return nil, apperr.PermissionDenied()
	}
	e.completeIfPastDue(booking)
	return booking, nil
}

// View selects whose bookings List returns.
type View int

const (
	ViewRenter View = iota
	ViewLandlord
)

// List returns the actor's bookings (renter view) or the bookings on the
// actor's listings (landlord view, Landlord role required). Unknown status
// filter values are silently dropped; unknown sort keys fall back to newest
// first. Confirmed bookings whose end date has passed are completed on read.
func (e *Engine) List(actor *models.User, view View, statuses []string, sortBy, order string, limit, offset int) ([]models.Booking, int64, error) {
	opts := database.BookingListOptions{
		SortBy: sortBy,
		Order:  order,
		Limit:  limit,
		Offset: offset,
	}

	switch view {
	case ViewLandlord:
		if !e.policy.CanUseLandlordView(actor) {
			return nil, 0, apperr.PermissionDenied()
		}
		opts.OwnerID = actor.ID
	default:
		opts.RenterID = actor.ID
	}

	for _, s := range statuses {
		if models.ValidBookingStatus(s) {
			opts.Statuses = append(opts.Statuses, s)
		}
	}

	bookings, total, err := e.db.ListBookings(opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range bookings {
		e.completeIfPastDue(&bookings[i])
	}
	return bookings, total, nil
}

// completeIfPastDue is the read-triggered side of the sweep: a listed
// Confirmed booking whose end date passed becomes Completed before it is
// returned.
func (e *Engine) completeIfPastDue(booking *models.Booking) {
	if booking.Status != models.BookingConfirmed || !booking.EndDate.Before(e.today()) {
		return
	}
	booking.Status = models.BookingCompleted
	if err := e.db.GetDB().Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingConfirmed).
		Update("status", models.BookingCompleted).Error; err != nil {
		e.logger.WithError(err).WithField("booking_id", booking.ID).
			Error("Failed to complete past-due booking on read")
	}
}

// BookedDates expands the listing's confirmed ranges into individual days,
// end date included, for the availability calendar.
func (e *Engine) BookedDates(listingID uint) ([]time.Time, error) {
	listing, err := e.db.GetListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}

	bookings, err := e.db.ConfirmedBookings(listingID)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for _, b := range bookings {
		for day := b.StartDate; !day.After(b.EndDate); day = day.AddDate(0, 0, 1) {
			dates = append(dates, day)
		}
	}
	return dates, nil
}

// CompletePastDue is the batch sweep entry point used by the scheduler.
func (e *Engine) CompletePastDue(now time.Time) (int64, error) {
	return e.db.CompletePastDueBookings(DateOnly(now))
}
