package database

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"stayspot/server/internal/models"
)

func (d *Database) GetListing(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := d.db.Preload("Tags").First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (d *Database) CreateListing(listing *models.Listing) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(listing).Error; err != nil {
			return err
		}
		return PromoteToLandlord(tx, listing.UserID)
	})
}

func (d *Database) SaveListing(listing *models.Listing) error {
	return d.db.Omit("Tags").Save(listing).Error
}

func (d *Database) DeleteListing(id uint) error {
	return d.db.Delete(&models.Listing{}, id).Error
}

// AttachTags resolves tag names to rows, creating missing ones, and replaces
// the listing's tag set. Called outside the listing's own transaction: a tag
// failure must not roll back the listing.
func (d *Database) AttachTags(listing *models.Listing, names []string) error {
	var tags []models.Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tag models.Tag
		err := d.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			if err := d.db.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	if err := d.db.Model(listing).Association("Tags").Replace(tags); err != nil {
		return err
	}
	listing.Tags = tags
	return nil
}

// ListPendingListings returns unverified, unrejected, active listings for the
// moderation queue.
func (d *Database) ListPendingListings(limit, offset int) ([]models.Listing, int64, error) {
	base := d.db.Model(&models.Listing{}).
		Where("verified = ? AND rejected = ? AND status = ?", false, false, true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []models.Listing
	err := base.Preload("Tags").Order("created_at ASC").
		Limit(limit).Offset(offset).Find(&listings).Error
	return listings, total, err
}

// IncrementListingViews bumps the view counter atomically in SQL.
func (d *Database) IncrementListingViews(id uint) error {
	return d.db.Model(&models.Listing{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// ExpirePastDueListings soft-disables active listings whose availability
// window has closed. Idempotent, safe to re-run.
func (d *Database) ExpirePastDueListings(now time.Time) (int64, error) {
	res := d.db.Model(&models.Listing{}).
		Where("status = ? AND availability_end_date IS NOT NULL AND availability_end_date < ?", true, now).
		Update("status", false)
	return res.RowsAffected, res.Error
}
