package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"stayspot/server/internal/models"
)

// ListingFilter is the typed filter spec for the search pipeline. All
// recognized filter keys are enumerated here; anything else in the request is
// ignored at the binding layer.
type ListingFilter struct {
	Query string

	MinPrice *float64
	MaxPrice *float64

	Locations     []string
	Cities        []string
	Country       string
	Rooms         *int
	PropertyTypes []string
	Tags          []string

	MinViews   *int
	MaxViews   *int
	MinRating  *float64
	MaxRating  *float64
	MinReviews *int
	MaxReviews *int

	// Visibility: the anonymous public sees active verified listings only.
	// OwnerID additionally exposes that user's own listings; Moderator lifts
	// the verified requirement.
	OwnerID   uint
	Moderator bool

	SortBy    string
	SortOrder string

	// Limit 0 disables SQL pagination; the caller pages in memory (used by
	// the geo radius post-filter).
	Limit  int
	Offset int
}

// avgRatingExpr mirrors the listing's average rating as a SQL expression:
// ratings_sum over ratings_count, guarding the unrated case.
const avgRatingExpr = "(CAST(ratings_sum AS REAL) / (CASE WHEN ratings_count > 0 THEN ratings_count ELSE 1 END))"

var listingSortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"rating":     avgRatingExpr,
	"reviews":    "reviews_count",
	"views":      "views_count",
}

// SearchListings runs the filtered, ranked listing query.
//
// The free-text stage works in two branches: an exact-phrase substring match
// against title/description first, then, only when that yields nothing, a
// fallback matching any word of the query. Result rows carry a rank tier
// (phrase hit 1, word hit 2, everything else 3) consistent with the branch
// that produced them, and tiers order before the requested sort.
func (d *Database) SearchListings(f ListingFilter) ([]models.Listing, int64, error) {
	base := d.db.Model(&models.Listing{})
	base = applyVisibility(base, f)
	base = applyStructuredFilters(base, f)

	rankSelect := "listings.*, 3 AS rank_tier"
	var rankArgs []interface{}

	query := strings.TrimSpace(f.Query)
	if query != "" {
		phrase := "%" + strings.ToLower(query) + "%"
		phraseCond := "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"

		var phraseHits int64
		if err := base.Session(&gorm.Session{}).
			Where(phraseCond, phrase, phrase).
			Count(&phraseHits).Error; err != nil {
			return nil, 0, err
		}

		if phraseHits > 0 {
			base = base.Where(phraseCond, phrase, phrase)
			rankSelect = fmt.Sprintf("listings.*, CASE WHEN %s THEN 1 ELSE 3 END AS rank_tier", phraseCond)
			rankArgs = []interface{}{phrase, phrase}
		} else {
			wordCond, wordArgs := wordMatchCondition(query)
			base = base.Where(wordCond, wordArgs...)
			rankSelect = fmt.Sprintf(
				"listings.*, CASE WHEN %s THEN 1 WHEN %s THEN 2 ELSE 3 END AS rank_tier",
				phraseCond, wordCond)
			rankArgs = append([]interface{}{phrase, phrase}, wordArgs...)
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := listingSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if f.SortOrder == "desc" {
		direction = "DESC"
	}

	results := base.Select(rankSelect, rankArgs...).
		Preload("Tags").
		Order(fmt.Sprintf("rank_tier ASC, %s %s", column, direction))
	if f.Limit > 0 {
		results = results.Limit(f.Limit).Offset(f.Offset)
	}

	var listings []models.Listing
	if err := results.Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func applyVisibility(query *gorm.DB, f ListingFilter) *gorm.DB {
	switch {
	case f.Moderator:
		return query.Where("status = ?", true)
	case f.OwnerID != 0:
		return query.Where("(status = ? AND verified = ?) OR user_id = ?", true, true, f.OwnerID)
	default:
		return query.Where("status = ? AND verified = ?", true, true)
	}
}

func applyStructuredFilters(query *gorm.DB, f ListingFilter) *gorm.DB {
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if len(f.Locations) > 0 {
		cond, args := substringAnyCondition("location", f.Locations)
		query = query.Where(cond, args...)
	}
	if len(f.Cities) > 0 {
		cond, args := substringAnyCondition("city", f.Cities)
		query = query.Where(cond, args...)
	}
	if f.Country != "" {
		query = query.Where("LOWER(country) LIKE ?", "%"+strings.ToLower(f.Country)+"%")
	}
	if f.Rooms != nil {
		query = query.Where("rooms = ?", *f.Rooms)
	}
	if len(f.PropertyTypes) > 0 {
		lowered := make([]string, 0, len(f.PropertyTypes))
		for _, pt := range f.PropertyTypes {
			lowered = append(lowered, strings.ToLower(pt))
		}
		query = query.Where("LOWER(property_type) IN ?", lowered)
	}
	for _, tag := range f.Tags {
		// AND across tags: every term must match one of the listing's tags
		query = query.Where(
			`EXISTS (
				SELECT 1 FROM listing_tags lt
				JOIN tags t ON t.id = lt.tag_id
				WHERE lt.listing_id = listings.id AND LOWER(t.name) LIKE ?)`,
			"%"+strings.ToLower(tag)+"%")
	}
	if f.MinViews != nil {
		query = query.Where("views_count >= ?", *f.MinViews)
	}
	if f.MaxViews != nil {
		query = query.Where("views_count <= ?", *f.MaxViews)
	}
	if f.MinRating != nil {
		query = query.Where(avgRatingExpr+" >= ?", *f.MinRating)
	}
	if f.MaxRating != nil {
		query = query.Where(avgRatingExpr+" <= ?", *f.MaxRating)
	}
	if f.MinReviews != nil {
		query = query.Where("reviews_count >= ?", *f.MinReviews)
	}
	if f.MaxReviews != nil {
		query = query.Where("reviews_count <= ?", *f.MaxReviews)
	}
	return query
}

// substringAnyCondition builds an OR of case-insensitive substring matches on
// one column (multi-value filters like city and location OR within the field).
func substringAnyCondition(column string, values []string) (string, []interface{}) {
	conds := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", column))
		args = append(args, "%"+strings.ToLower(v)+"%")
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// wordMatchCondition builds the OR-of-words fallback: any token present in
// title or description.
func wordMatchCondition(query string) (string, []interface{}) {
	words := strings.Fields(strings.ToLower(query))
	conds := make([]string, 0, len(words))
	args := make([]interface{}, 0, len(words)*2)
	for _, word := range words {
		pattern := "%" + word + "%"
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// RecordSearch upserts the global popularity counter for a normalized query
// and appends a per-user history entry. Both writes are best-effort at the
// caller.
func (d *Database) RecordSearch(userID uint, normalizedQuery string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var history models.SearchHistory
		err := tx.Where("search_query = ?", normalizedQuery).First(&history).Error
		switch {
		case err == nil:
			if err := tx.Model(&history).
				UpdateColumn("search_count", gorm.Expr("search_count + 1")).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			history = models.SearchHistory{SearchQuery: normalizedQuery, SearchCount: 1}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Create(&models.UserSearchHistory{
			UserID:          userID,
			SearchHistoryID: history.ID,
		}).Error
	})
}

// PopularSearch is a row of the popular-searches report.
type PopularSearch struct {
	SearchQuery string `json:"search_query"`
	Total       int    `json:"total"`
}

func (d *Database) PopularSearches(limit int) ([]PopularSearch, error) {
	var popular []PopularSearch
	err := d.db.Model(&models.SearchHistory{}).
		Select("search_query, SUM(search_count) AS total").
		Group("search_query").
		Order("total DESC").
		Limit(limit).
		Scan(&popular).Error
	return popular, err
}

func (d *Database) UserSearchHistory(userID uint, order string) ([]models.UserSearchHistory, error) {
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}
	var entries []models.UserSearchHistory
	err := d.db.Preload("SearchHistory").
		Where("user_id = ?", userID).
		Order("created_at " + direction).
		Find(&entries).Error
	return entries, err
}
