package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the gorm handle plus the per-listing lock table used to
// serialize booking mutations.
type Database struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	listing *lockTable
}

func NewDatabase(dbPath string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and wait on writer contention instead of failing
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Database{
		db:      gormDB,
		sqlDB:   sqlDB,
		listing: newLockTable(),
	}, nil
}

// GetDB exposes the underlying gorm handle.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// Transaction runs fn inside a single database transaction.
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.db.Transaction(fn)
}

// WithListingLock runs fn while holding the in-process lock for the given
// listing. Booking create/confirm/cancel are read-check-write sequences, so
// each listing's booking state is mutated by one goroutine at a time.
func (d *Database) WithListingLock(listingID uint, fn func() error) error {
	mu := d.listing.get(listingID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (d *Database) Close() error {
	return d.sqlDB.Close()
}
