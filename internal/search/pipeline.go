// Package search builds filtered, ranked listing result sets and records
// search history as a best-effort side effect.
package search

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"

	"stayspot/server/internal/access"
	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

// Request is the full search input: the typed filter spec plus an optional
// geo radius constraint applied on top of the stored filters.
type Request struct {
	Filter database.ListingFilter

	// Near restricts results to listings with coordinates within RadiusKM
	// kilometres of the point. Listings without coordinates never match.
	Near     *orb.Point
	RadiusKM float64

	Page     int
	PageSize int
}

type Pipeline struct {
	db     *database.Database
	policy *access.Policy
	logger *logrus.Logger
}

func NewPipeline(db *database.Database, policy *access.Policy, logger *logrus.Logger) *Pipeline {
	return &Pipeline{db: db, policy: policy, logger: logger}
}

// Search runs the pipeline for the (possibly anonymous) actor: visibility,
// text stage with phrase-then-words fallback, structured filters, tier
// ranking, pagination. When the query is non-empty and the actor is
// authenticated, the global and per-user search history are updated; history
// failures are logged and never surfaced.
func (p *Pipeline) Search(actor *models.User, req Request) ([]models.Listing, int64, error) {
	f := req.Filter
	if actor != nil {
		f.OwnerID = actor.ID
		f.Moderator = p.policy.CanSeeUnverified(actor)
	}

	query := normalizeQuery(f.Query)
	if query != "" && actor != nil {
		if err := p.db.RecordSearch(actor.ID, query); err != nil {
			p.logger.WithError(err).WithField("query", query).
				Warn("Failed to record search history")
		}
	}

	if req.Near == nil {
		f.Limit = req.PageSize
		f.Offset = (req.Page - 1) * req.PageSize
		return p.db.SearchListings(f)
	}

	// Geo radius: fetch the ordered result set without SQL pagination,
	// post-filter by great-circle distance, then page in memory.
	f.Limit = 0
	f.Offset = 0
	listings, _, err := p.db.SearchListings(f)
	if err != nil {
		return nil, 0, err
	}

	within := listings[:0]
	for _, listing := range listings {
		if listing.Latitude == nil || listing.Longitude == nil {
			continue
		}
		point := orb.Point{*listing.Longitude, *listing.Latitude}
		if geo.Distance(point, *req.Near) <= req.RadiusKM*1000 {
			within = append(within, listing)
		}
	}

	total := int64(len(within))
	startIdx := (req.Page - 1) * req.PageSize
	if startIdx >= len(within) {
		return []models.Listing{}, total, nil
	}
	endIdx := startIdx + req.PageSize
	if endIdx > len(within) {
		endIdx = len(within)
	}
	return within[startIdx:endIdx], total, nil
}

// Popular returns the most-run queries by cumulative count.
func (p *Pipeline) Popular(limit int) ([]database.PopularSearch, error) {
	return p.db.PopularSearches(limit)
}

// History returns the actor's own search log.
func (p *Pipeline) History(actor *models.User, order string) ([]models.UserSearchHistory, error) {
	return p.db.UserSearchHistory(actor.ID, order)
}

// normalizeQuery is the history key normalization: trimmed, lower-cased,
// inner whitespace collapsed.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
