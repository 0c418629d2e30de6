// Package listing owns the rental records: CRUD by owners, the moderation
// queue, throttled view counting and the availability expiry sweep.
package listing

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stayspot/server/config"
	"stayspot/server/internal/access"
	"stayspot/server/internal/apperr"
	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

type Service struct {
	db     *database.Database
	policy *access.Policy
	cfg    *config.Config
	logger *logrus.Logger

	// view throttle: viewer key -> last counted view
	viewMu    sync.Mutex
	lastViews map[string]time.Time
}

func NewService(db *database.Database, policy *access.Policy, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		policy:    policy,
		cfg:       cfg,
		logger:    logger,
		lastViews: make(map[string]time.Time),
	}
}

// Input carries the owner-editable listing fields.
type Input struct {
	Title                 string
	Description           string
	Address               string
	Location              string
	City                  string
	Country               string
	Price                 float64
	Rooms                 int
	PropertyType          string
	AvailabilityStartDate *time.Time
	AvailabilityEndDate   *time.Time
	Latitude              *float64
	Longitude             *float64
	ContactInfo           string
	Tags                  []string
}

func validPropertyType(pt string) bool {
	for _, known := range models.PropertyTypes {
		if pt == known {
			return true
		}
	}
	return false
}

func (in *Input) validate() error {
	if in.Title == "" || in.Description == "" {
		return apperr.New(apperr.KindInvalidInput, "title and description are required")
	}
	if in.Price <= 0 {
		return apperr.New(apperr.KindInvalidInput, "price must be positive")
	}
	if in.PropertyType != "" && !validPropertyType(in.PropertyType) {
		return apperr.Newf(apperr.KindInvalidInput, "unknown property type %q", in.PropertyType)
	}
	return nil
}

// Create publishes a new listing for the actor. New listings start
// unverified and enter the moderation queue; the owner is promoted to
// Landlord. Tags are attached after the listing transaction: a tag failure
// is logged but does not roll the listing back.
func (s *Service) Create(actor *models.User, input Input) (*models.Listing, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		UserID:                actor.ID,
		Title:                 input.Title,
		Description:           input.Description,
		Address:               input.Address,
		Location:              input.Location,
		City:                  input.City,
		Country:               input.Country,
		Price:                 input.Price,
		Rooms:                 input.Rooms,
		PropertyType:          input.PropertyType,
		Status:                true,
		Verified:              false,
		AvailabilityStartDate: input.AvailabilityStartDate,
		AvailabilityEndDate:   input.AvailabilityEndDate,
		Latitude:              input.Latitude,
		Longitude:             input.Longitude,
		ContactInfo:           input.ContactInfo,
	}

	if err := s.db.CreateListing(listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	if len(input.Tags) > 0 {
		if err := s.db.AttachTags(listing, input.Tags); err != nil {
			s.logger.WithError(err).WithField("listing_id", listing.ID).
				Error("Failed to attach tags")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"user_id":    actor.ID,
	}).Info("Listing created")
	return listing, nil
}

// Update edits a listing as its owner or a moderator. A change to the title
// or description invalidates verification: the listing drops back into the
// moderation queue.
func (s *Service) Update(actor *models.User, id uint, input Input) (*models.Listing, error) {
	listing, err := s.db.GetListing(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}
	if !s.policy.CanEditListing(actor, listing) {
		return nil, apperr.PermissionDenied()
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	contentChanged := listing.Title != input.Title || listing.Description != input.Description

	listing.Title = input.Title
	listing.Description = input.Description
	listing.Address = input.Address
	listing.Location = input.Location
	listing.City = input.City
	listing.Country = input.Country
	listing.Price = input.Price
	listing.Rooms = input.Rooms
	listing.PropertyType = input.PropertyType
	listing.AvailabilityStartDate = input.AvailabilityStartDate
	listing.AvailabilityEndDate = input.AvailabilityEndDate
	listing.Latitude = input.Latitude
	listing.Longitude = input.Longitude
	listing.ContactInfo = input.ContactInfo

	if contentChanged {
		listing.Verified = false
		listing.Rejected = false
		listing.RejectionReason = ""
	}

	if err := s.db.SaveListing(listing); err != nil {
		return nil, fmt.Errorf("failed to save listing: %w", err)
	}
	if input.Tags != nil {
		if err := s.db.AttachTags(listing, input.Tags); err != nil {
			s.logger.WithError(err).WithField("listing_id", listing.ID).
				Error("Failed to attach tags")
		}
	}

	return listing, nil
}

// Get returns a listing visible to the actor and counts the view, throttled
// per viewer so reloads do not inflate the counter. viewerKey is the user id
// for authenticated viewers, the client address otherwise.
func (s *Service) Get(actor *models.User, id uint, viewerKey string) (*models.Listing, error) {
	listing, err := s.db.GetListing(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}
	if !s.policy.CanViewListing(actor, listing) {
		return nil, apperr.NotFound("listing")
	}

	if s.shouldCountView(listing.ID, viewerKey) {
		if err := s.db.IncrementListingViews(listing.ID); err != nil {
			s.logger.WithError(err).WithField("listing_id", listing.ID).
				Error("Failed to increment views")
		} else {
			listing.ViewsCount++
		}
	}
	return listing, nil
}

func (s *Service) shouldCountView(listingID uint, viewerKey string) bool {
	if viewerKey == "" {
		return false
	}
	key := fmt.Sprintf("%d:%s", listingID, viewerKey)
	throttle := time.Duration(s.cfg.Views.ThrottleSeconds) * time.Second

	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if last, ok := s.lastViews[key]; ok && time.Since(last) < throttle {
		return false
	}
	s.lastViews[key] = time.Now()
	return true
}

// Delete removes a listing as its owner or a moderator.
func (s *Service) Delete(actor *models.User, id uint) error {
	listing, err := s.db.GetListing(id)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return apperr.NotFound("listing")
	}
	if !s.policy.CanEditListing(actor, listing) {
		return apperr.PermissionDenied()
	}
	return s.db.DeleteListing(id)
}

// ListPending returns the moderation queue.
func (s *Service) ListPending(actor *models.User, limit, offset int) ([]models.Listing, int64, error) {
	if !s.policy.CanModerate(actor) {
		return nil, 0, apperr.PermissionDenied()
	}
	return s.db.ListPendingListings(limit, offset)
}

// Verify approves a pending listing.
func (s *Service) Verify(actor *models.User, id uint) (*models.Listing, error) {
	return s.moderate(actor, id, func(l *models.Listing) {
		l.Verified = true
		l.Rejected = false
		l.RejectionReason = ""
	})
}

// Reject declines a pending listing with a reason for the owner.
func (s *Service) Reject(actor *models.User, id uint, reason string) (*models.Listing, error) {
	return s.moderate(actor, id, func(l *models.Listing) {
		l.Verified = false
		l.Rejected = true
		l.RejectionReason = reason
	})
}

func (s *Service) moderate(actor *models.User, id uint, apply func(*models.Listing)) (*models.Listing, error) {
	if !s.policy.CanModerate(actor) {
		return nil, apperr.PermissionDenied()
	}
	listing, err := s.db.GetListing(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing")
	}

	apply(listing)
	if err := s.db.SaveListing(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ExpirePastDue is the sweep entry point disabling listings whose
// availability window has closed.
func (s *Service) ExpirePastDue(now time.Time) (int64, error) {
	return s.db.ExpirePastDueListings(now)
}
