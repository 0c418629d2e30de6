package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stayspot/server/internal/models"
)

func (d *Database) GetReview(id uint) (*models.Review, error) {
	var review models.Review
	err := d.db.First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// HasReview reports whether the user already reviewed the listing.
func (d *Database) HasReview(userID, listingID uint) (bool, error) {
	var count int64
	err := d.db.Model(&models.Review{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	return count > 0, err
}

var reviewSortColumns = map[string]string{
	"created_at": "created_at",
	"rating":     "rating",
}

func (d *Database) ListReviews(listingID uint, sortBy, order string, limit, offset int) ([]models.Review, int64, error) {
	base := d.db.Model(&models.Review{}).Where("listing_id = ?", listingID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := reviewSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}

	var reviews []models.Review
	err := base.Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

// ListPendingReviews returns unpublished reviews for the moderation queue.
func (d *Database) ListPendingReviews(limit, offset int) ([]models.Review, int64, error) {
	base := d.db.Model(&models.Review{}).Where("published = ?", false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := base.Order("created_at ASC").Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

// RecomputeListingAggregates rebuilds a listing's rating counters from the
// current review rows. It is a full recompute rather than an incremental
// adjustment, so re-running it is always safe and drift cannot accumulate.
// Must run in the same transaction as the review mutation that triggered it.
func RecomputeListingAggregates(tx *gorm.DB, listingID uint) error {
	type aggregates struct {
		RatingsCount int
		RatingsSum   int
		ReviewsCount int
	}

	var agg aggregates
	err := tx.Model(&models.Review{}).
		Select(`
			COUNT(rating) AS ratings_count,
			COALESCE(SUM(rating), 0) AS ratings_sum,
			COALESCE(SUM(CASE WHEN comment <> '' THEN 1 ELSE 0 END), 0) AS reviews_count`).
		Where("listing_id = ?", listingID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Listing{}).Where("id = ?", listingID).
		UpdateColumns(map[string]interface{}{
			"ratings_count": agg.RatingsCount,
			"ratings_sum":   agg.RatingsSum,
			"reviews_count": agg.ReviewsCount,
		}).Error
}
