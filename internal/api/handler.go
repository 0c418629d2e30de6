package api

import (
	"os"

	"github.com/sirupsen/logrus"

	"stayspot/server/config"
	"stayspot/server/internal/access"
	"stayspot/server/internal/booking"
	"stayspot/server/internal/database"
	"stayspot/server/internal/listing"
	"stayspot/server/internal/review"
	"stayspot/server/internal/search"
)

type Handler struct {
	db       *database.Database
	cfg      *config.Config
	logger   *logrus.Logger
	bookings *booking.Engine
	reviews  *review.Aggregator
	searches *search.Pipeline
	listings *listing.Service
}

func NewHandler(db *database.Database, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	policy := access.NewPolicy()

	return &Handler{
		db:       db,
		cfg:      cfg,
		logger:   logger,
		bookings: booking.NewEngine(db, policy, cfg, logger),
		reviews:  review.NewAggregator(db, policy, cfg, logger),
		searches: search.NewPipeline(db, policy, logger),
		listings: listing.NewService(db, policy, cfg, logger),
	}
}

// Bookings exposes the booking engine for the scheduler.
func (h *Handler) Bookings() *booking.Engine {
	return h.bookings
}

// Listings exposes the listing service for the scheduler.
func (h *Handler) Listings() *listing.Service {
	return h.listings
}
