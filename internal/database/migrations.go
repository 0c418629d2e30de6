package database

import "stayspot/server/internal/models"

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Listing{},
		&models.Booking{},
		&models.Review{},
		&models.SearchHistory{},
		&models.UserSearchHistory{},
	); err != nil {
		return err
	}

	// Covering index for the overlap scan on confirmed bookings
	return d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_listing_status_dates
		ON bookings(listing_id, status, start_date, end_date);
	`).Error
}
