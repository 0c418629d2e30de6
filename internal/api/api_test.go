package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayspot/server/config"
	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

type testServer struct {
	router *gin.Engine
	db     *database.Database
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Booking.CancellationWindowDays = 3
	cfg.Review.Eligibility = "completed"
	cfg.Pagination.DefaultPageSize = 20
	cfg.Pagination.MaxPageSize = 100
	cfg.Views.ThrottleSeconds = 10

	router := gin.New()
	SetupRoutes(router, db, cfg, logger)
	return &testServer{router: router, db: db}
}

func (s *testServer) seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role, IsActive: true}
	require.NoError(t, s.db.GetDB().Create(user).Error)
	return user
}

func (s *testServer) seedListing(t *testing.T, owner *models.User) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		UserID:      owner.ID,
		Title:       "Harbour apartment",
		Description: "Two rooms over the harbour",
		City:        "Rotterdam",
		Country:     "Netherlands",
		Price:       120,
		Rooms:       2,
		Status:      true,
		Verified:    true,
	}
	require.NoError(t, s.db.GetDB().Create(listing).Error)
	return listing
}

// do runs a request as the given user (nil for anonymous) and returns the
// recorded response.
func (s *testServer) do(t *testing.T, user *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(headerUserID, strconv.FormatUint(uint64(user.ID), 10))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// futureDate returns a date string safely in the future of the real clock.
func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, nil, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodGet, "/api/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	inactive := &models.User{Username: "gone", Email: "gone@example.com", Role: models.RoleUser, IsActive: false}
	require.NoError(t, s.db.GetDB().Create(inactive).Error)
	rec = s.do(t, inactive, http.MethodGet, "/api/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner", models.RoleLandlord)
	renter := s.seedUser(t, "renter", models.RoleUser)
	rival := s.seedUser(t, "rival", models.RoleUser)
	listing := s.seedListing(t, owner)

	start, end := futureDate(30), futureDate(34)

	rec := s.do(t, renter, http.MethodPost, "/api/bookings", gin.H{
		"listing_id": listing.ID,
		"start_date": start,
		"end_date":   end,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	assert.Equal(t, models.BookingPending, created["status"])
	assert.EqualValues(t, 480, created["price"])
	bookingID := int(created["id"].(float64))

	t.Run("stranger cannot read the booking", func(t *testing.T) {
		rec := s.do(t, rival, http.MethodGet, fmt.Sprintf("/api/bookings/%d", bookingID), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("landlord confirms", func(t *testing.T) {
		rec := s.do(t, owner, http.MethodPatch, fmt.Sprintf("/api/landlord/bookings/%d", bookingID), gin.H{
			"action":      "confirm",
			"msg_to_user": "see you soon",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, models.BookingConfirmed, body["status"])
		assert.Equal(t, "see you soon", body["msg_to_user"])
	})

	t.Run("overlapping booking conflicts", func(t *testing.T) {
		rec := s.do(t, rival, http.MethodPost, "/api/bookings", gin.H{
			"listing_id": listing.ID,
			"start_date": futureDate(32),
			"end_date":   futureDate(36),
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decode(t, rec)["kind"])
	})

	t.Run("touching range is accepted", func(t *testing.T) {
		rec := s.do(t, rival, http.MethodPost, "/api/bookings", gin.H{
			"listing_id": listing.ID,
			"start_date": end,
			"end_date":   futureDate(36),
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("booked dates calendar", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodGet, fmt.Sprintf("/api/listings/%d/booked-dates", listing.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		days := decode(t, rec)["booked_dates"].([]interface{})
		assert.Len(t, days, 5) // confirmed range only, end inclusive
		assert.Equal(t, start, days[0])
	})

	t.Run("renter lists own bookings", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodGet, "/api/bookings?status=Confirmed", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 1, body["count"])
	})

	t.Run("landlord view is role gated", func(t *testing.T) {
		rec := s.do(t, rival, http.MethodGet, "/api/landlord/bookings", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, owner, http.MethodGet, "/api/landlord/bookings", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decode(t, rec)["count"])
	})
}

func TestBookingValidation(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner", models.RoleLandlord)
	renter := s.seedUser(t, "renter", models.RoleUser)
	listing := s.seedListing(t, owner)

	t.Run("malformed date", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodPost, "/api/bookings", gin.H{
			"listing_id": listing.ID,
			"start_date": "june first",
			"end_date":   futureDate(5),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decode(t, rec)["kind"])
	})

	t.Run("inverted range", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodPost, "/api/bookings", gin.H{
			"listing_id": listing.ID,
			"start_date": futureDate(10),
			"end_date":   futureDate(5),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_range", decode(t, rec)["kind"])
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodPost, "/api/bookings", gin.H{"listing_id": listing.ID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown listing", func(t *testing.T) {
		rec := s.do(t, renter, http.MethodPost, "/api/bookings", gin.H{
			"listing_id": 9999,
			"start_date": futureDate(5),
			"end_date":   futureDate(8),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListingEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := s.seedUser(t, "newbie", models.RoleUser)
	moderator := s.seedUser(t, "mod", models.RoleModerator)

	rec := s.do(t, user, http.MethodPost, "/api/listings", gin.H{
		"title":         "Attic studio",
		"description":   "Cosy attic in the old town",
		"city":          "Leiden",
		"country":       "Netherlands",
		"price":         75,
		"rooms":         1,
		"property_type": models.PropertyTypeStudio,
		"tags":          []string{"attic", "central"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	assert.Equal(t, false, created["verified"])
	listingID := int(created["id"].(float64))

	t.Run("anonymous cannot see it before verification", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, fmt.Sprintf("/api/listings/%d", listingID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("moderation queue and verify", func(t *testing.T) {
		rec := s.do(t, user, http.MethodGet, "/api/moderation/listings", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, moderator, http.MethodGet, "/api/moderation/listings", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["count"])

		rec = s.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/moderation/listings/%d/verify", listingID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["verified"])
	})

	t.Run("anonymous read counts a view", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, fmt.Sprintf("/api/listings/%d", listingID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["views_count"])
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		rec := s.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/moderation/listings/%d/reject", listingID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/moderation/listings/%d/reject", listingID), gin.H{
			"reason": "needs photos",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["rejected"])
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(t, moderator, http.MethodDelete, fmt.Sprintf("/api/listings/%d", listingID), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, user, http.MethodGet, fmt.Sprintf("/api/listings/%d", listingID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReviewEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner", models.RoleLandlord)
	guest := s.seedUser(t, "guest", models.RoleUser)
	moderator := s.seedUser(t, "mod", models.RoleModerator)
	listing := s.seedListing(t, owner)

	stay := &models.Booking{
		UserID:    guest.ID,
		ListingID: listing.ID,
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		Status:    models.BookingCompleted,
	}
	require.NoError(t, s.db.GetDB().Create(stay).Error)

	reviewsPath := fmt.Sprintf("/api/listings/%d/reviews", listing.ID)

	rec := s.do(t, guest, http.MethodPost, reviewsPath, gin.H{
		"booking_id": stay.ID,
		"rating":     5,
		"comment":    "great stay",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := int(decode(t, rec)["id"].(float64))

	t.Run("duplicate rejected", func(t *testing.T) {
		rec := s.do(t, guest, http.MethodPost, reviewsPath, gin.H{
			"booking_id": stay.ID,
			"rating":     4,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "duplicate_review", decode(t, rec)["kind"])
	})

	t.Run("owner cannot review without a stay", func(t *testing.T) {
		rec := s.do(t, owner, http.MethodPost, reviewsPath, gin.H{
			"booking_id": stay.ID,
			"rating":     5,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ineligible_booking", decode(t, rec)["kind"])
	})

	t.Run("public list", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, reviewsPath, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["count"])
	})

	t.Run("publish then listing aggregates", func(t *testing.T) {
		rec := s.do(t, moderator, http.MethodPost, fmt.Sprintf("/api/moderation/reviews/%d/publish", reviewID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, nil, http.MethodGet, fmt.Sprintf("/api/listings/%d", listing.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 1, body["ratings_count"])
		assert.EqualValues(t, 5, body["ratings_sum"])
	})

	t.Run("moderator deletes", func(t *testing.T) {
		rec := s.do(t, guest, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", reviewID), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, moderator, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", reviewID), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSearchEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner", models.RoleLandlord)
	user := s.seedUser(t, "user", models.RoleUser)
	s.seedListing(t, owner)

	t.Run("anonymous search", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, "/api/search?q=harbour", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["count"])
	})

	t.Run("filters narrow results", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, "/api/search?city=rotterdam&min_price=200", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 0, decode(t, rec)["count"])
	})

	t.Run("history and popular reflect searches", func(t *testing.T) {
		rec := s.do(t, user, http.MethodGet, "/api/search?q=Harbour+Apartment", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, user, http.MethodGet, "/api/search/popular", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, user, http.MethodGet, "/api/search/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSweepEndpoint(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner", models.RoleLandlord)
	renter := s.seedUser(t, "renter", models.RoleUser)
	listing := s.seedListing(t, owner)

	past := &models.Booking{
		UserID:    renter.ID,
		ListingID: listing.ID,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Status:    models.BookingConfirmed,
	}
	require.NoError(t, s.db.GetDB().Create(past).Error)

	rec := s.do(t, renter, http.MethodPost, "/api/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["bookings_completed"])
}
