// Package review gates review creation on completed stays and keeps the
// listing rating aggregates consistent with the review rows.
package review

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"stayspot/server/config"
	"stayspot/server/internal/access"
	"stayspot/server/internal/apperr"
	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

type Aggregator struct {
	db     *database.Database
	policy *access.Policy
	cfg    *config.Config
	logger *logrus.Logger
}

func NewAggregator(db *database.Database, policy *access.Policy, cfg *config.Config, logger *logrus.Logger) *Aggregator {
	return &Aggregator{db: db, policy: policy, cfg: cfg, logger: logger}
}

// eligible reports whether a booking in the given status may be reviewed.
func (a *Aggregator) eligible(status string) bool {
	if a.cfg.Review.Eligibility == "confirmed_or_completed" {
		return status == models.BookingConfirmed || status == models.BookingCompleted
	}
	return status == models.BookingCompleted
}

// Create persists a review after the eligibility gates pass, then recomputes
// the listing aggregates in the same transaction.
func (a *Aggregator) Create(actor *models.User, listingID, bookingID uint, rating *int, comment string) (*models.Review, error) {
	listing, err := a.db.GetListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}

	booking, err := a.db.GetBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking")
	}

	if booking.UserID != actor.ID || booking.ListingID != listing.ID {
		return nil, apperr.New(apperr.KindIneligibleBooking,
			"the booking does not belong to you for this listing")
	}
	if !a.eligible(booking.Status) {
		return nil, apperr.New(apperr.KindIneligibleBooking,
			"only completed stays can be reviewed")
	}

	exists, err := a.db.HasReview(actor.ID, listing.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(apperr.KindDuplicateReview, "you have already reviewed this listing")
	}

	if rating == nil && comment == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "at least one of rating or comment must be provided")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, apperr.New(apperr.KindInvalidInput, "rating must be between 1 and 5")
	}

	reviewRow := &models.Review{
		UserID:    actor.ID,
		ListingID: listing.ID,
		BookingID: booking.ID,
		Rating:    rating,
		Comment:   comment,
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reviewRow).Error; err != nil {
			return err
		}
		return database.RecomputeListingAggregates(tx, listing.ID)
	})
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"review_id":  reviewRow.ID,
		"listing_id": listing.ID,
		"user_id":    actor.ID,
	}).Info("Review created")
	return reviewRow, nil
}

// UpdateInput carries the editable review fields; nil pointers leave the
// current value.
type UpdateInput struct {
	Rating  *int
	Comment *string
}

// Update edits a review as its author or a moderator. A comment edit resets
// the published flag so the review goes back through moderation; rating-only
// edits keep it. Aggregates are recomputed either way.
func (a *Aggregator) Update(actor *models.User, reviewID uint, input UpdateInput) (*models.Review, error) {
	reviewRow, err := a.db.GetReview(reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if reviewRow == nil {
		return nil, apperr.NotFound("review")
	}
	if !a.policy.CanEditReview(actor, reviewRow) {
		return nil, apperr.PermissionDenied()
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperr.New(apperr.KindInvalidInput, "rating must be between 1 and 5")
		}
		reviewRow.Rating = input.Rating
	}
	if input.Comment != nil {
		reviewRow.Comment = *input.Comment
		reviewRow.Published = false
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Listing", "User", "Booking").Save(reviewRow).Error; err != nil {
			return err
		}
		return database.RecomputeListingAggregates(tx, reviewRow.ListingID)
	})
	if err != nil {
		return nil, err
	}

	a.logger.WithField("review_id", reviewRow.ID).Info("Review updated")
	return reviewRow, nil
}

// Delete removes a review (moderator-only) and recomputes the affected
// listing's aggregates.
func (a *Aggregator) Delete(actor *models.User, reviewID uint) error {
	reviewRow, err := a.db.GetReview(reviewID)
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if reviewRow == nil {
		return apperr.NotFound("review")
	}
	if !a.policy.CanDeleteReview(actor) {
		return apperr.PermissionDenied()
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Review{}, reviewRow.ID).Error; err != nil {
			return err
		}
		return database.RecomputeListingAggregates(tx, reviewRow.ListingID)
	})
	if err != nil {
		return err
	}

	a.logger.WithField("review_id", reviewRow.ID).Info("Review deleted")
	return nil
}

// Publish marks a review as moderated and visible.
func (a *Aggregator) Publish(actor *models.User, reviewID uint) (*models.Review, error) {
	if !a.policy.CanModerate(actor) {
		return nil, apperr.PermissionDenied()
	}
	reviewRow, err := a.db.GetReview(reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if reviewRow == nil {
		return nil, apperr.NotFound("review")
	}

	reviewRow.Published = true
	if err := a.db.GetDB().Omit("Listing", "User", "Booking").Save(reviewRow).Error; err != nil {
		return nil, err
	}
	return reviewRow, nil
}

// ListForListing returns a listing's reviews, newest first by default.
func (a *Aggregator) ListForListing(listingID uint, sortBy, order string, limit, offset int) ([]models.Review, int64, error) {
	listing, err := a.db.GetListing(listingID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, 0, apperr.NotFound("listing")
	}
	return a.db.ListReviews(listingID, sortBy, order, limit, offset)
}

// ListPending returns the moderation queue of unpublished reviews.
func (a *Aggregator) ListPending(actor *models.User, limit, offset int) ([]models.Review, int64, error) {
	if !a.policy.CanModerate(actor) {
		return nil, 0, apperr.PermissionDenied()
	}
	return a.db.ListPendingReviews(limit, offset)
}
