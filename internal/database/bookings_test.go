package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayspot/server/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func seedOwnerAndListing(t *testing.T, db *Database) (*models.User, *models.Listing) {
	t.Helper()
	owner := &models.User{Username: "owner", Email: "owner@example.com", Role: models.RoleLandlord, IsActive: true}
	require.NoError(t, db.GetDB().Create(owner).Error)
	listing := &models.Listing{
		UserID: owner.ID, Title: "Test flat", Description: "d",
		Price: 100, Status: true, Verified: true,
	}
	require.NoError(t, db.GetDB().Create(listing).Error)
	return owner, listing
}

func TestOverlapExists(t *testing.T) {
	db := newTestDB(t)
	_, listing := seedOwnerAndListing(t, db)

	renter := &models.User{Username: "renter", Email: "renter@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, db.GetDB().Create(renter).Error)

	existing := &models.Booking{
		UserID: renter.ID, ListingID: listing.ID,
		StartDate: day(t, "2025-06-10"), EndDate: day(t, "2025-06-15"),
		Status: models.BookingConfirmed,
	}
	require.NoError(t, db.GetDB().Create(existing).Error)

	confirmed := []string{models.BookingConfirmed}
	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"fully inside", "2025-06-11", "2025-06-13", true},
		{"spanning", "2025-06-05", "2025-06-20", true},
		{"left overlap", "2025-06-08", "2025-06-11", true},
		{"right overlap", "2025-06-14", "2025-06-18", true},
		{"identical", "2025-06-10", "2025-06-15", true},
		{"touching before", "2025-06-05", "2025-06-10", false},
		{"touching after", "2025-06-15", "2025-06-20", false},
		{"disjoint before", "2025-06-01", "2025-06-05", false},
		{"disjoint after", "2025-06-20", "2025-06-25", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := OverlapExists(db.GetDB(), listing.ID,
				day(t, tc.start), day(t, tc.end), 0, confirmed)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("status filter", func(t *testing.T) {
		got, err := OverlapExists(db.GetDB(), listing.ID,
			day(t, "2025-06-11"), day(t, "2025-06-13"), 0, []string{models.BookingPending})
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("exclude id skips the row", func(t *testing.T) {
		got, err := OverlapExists(db.GetDB(), listing.ID,
			day(t, "2025-06-10"), day(t, "2025-06-15"), existing.ID, confirmed)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("other listing unaffected", func(t *testing.T) {
		got, err := OverlapExists(db.GetDB(), listing.ID+1,
			day(t, "2025-06-10"), day(t, "2025-06-15"), 0, confirmed)
		require.NoError(t, err)
		assert.False(t, got)
	})
}

func TestListBookings(t *testing.T) {
	db := newTestDB(t)
	owner, listingA := seedOwnerAndListing(t, db)

	listingB := &models.Listing{
		UserID: owner.ID, Title: "Annex room", Description: "d",
		Price: 50, Status: true, Verified: true,
	}
	require.NoError(t, db.GetDB().Create(listingB).Error)

	renter := &models.User{Username: "renter", Email: "renter@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, db.GetDB().Create(renter).Error)

	seed := func(l *models.Listing, start, end, status string) {
		require.NoError(t, db.GetDB().Create(&models.Booking{
			UserID: renter.ID, ListingID: l.ID,
			StartDate: day(t, start), EndDate: day(t, end), Status: status,
		}).Error)
	}
	seed(listingA, "2025-06-01", "2025-06-05", models.BookingConfirmed)
	seed(listingB, "2025-07-01", "2025-07-05", models.BookingPending)

	t.Run("renter view", func(t *testing.T) {
		bookings, total, err := db.ListBookings(BookingListOptions{
			RenterID: renter.ID, SortBy: "start_date", Order: "asc", Limit: 10,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, bookings, 2)
		assert.Equal(t, day(t, "2025-06-01"), bookings[0].StartDate)
		require.NotNil(t, bookings[0].Listing)
	})

	t.Run("landlord view with listing title sort", func(t *testing.T) {
		bookings, _, err := db.ListBookings(BookingListOptions{
			OwnerID: owner.ID, SortBy: "listing_title", Order: "asc", Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "Annex room", bookings[0].Listing.Title)
	})

	t.Run("status filter", func(t *testing.T) {
		_, total, err := db.ListBookings(BookingListOptions{
			RenterID: renter.ID, Statuses: []string{models.BookingPending}, Limit: 10,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("unknown sort falls back to newest first", func(t *testing.T) {
		_, _, err := db.ListBookings(BookingListOptions{
			RenterID: renter.ID, SortBy: "price; DROP TABLE bookings", Limit: 10,
		})
		assert.NoError(t, err)
	})

	t.Run("pagination", func(t *testing.T) {
		bookings, total, err := db.ListBookings(BookingListOptions{
			RenterID: renter.ID, SortBy: "start_date", Order: "asc", Limit: 1, Offset: 1,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, bookings, 1)
		assert.Equal(t, day(t, "2025-07-01"), bookings[0].StartDate)
	})
}
