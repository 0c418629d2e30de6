package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"stayspot/server/internal/apperr"
	"stayspot/server/internal/database"
	"stayspot/server/internal/search"
)

func floatParam(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

func intParam(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// SearchListings runs the search pipeline. Recognized filter keys: min_price,
// max_price, location, city, country, rooms, property_type, tags, min_views,
// max_views, min_rating, max_rating, min_reviews, max_reviews, near,
// radius_km. Anything else is ignored.
func (h *Handler) SearchListings(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	req := search.Request{
		Filter: database.ListingFilter{
			Query:         c.Query("q"),
			MinPrice:      floatParam(c, "min_price"),
			MaxPrice:      floatParam(c, "max_price"),
			Locations:     c.QueryArray("location"),
			Cities:        c.QueryArray("city"),
			Country:       c.Query("country"),
			Rooms:         intParam(c, "rooms"),
			PropertyTypes: c.QueryArray("property_type"),
			Tags:          c.QueryArray("tags"),
			MinViews:      intParam(c, "min_views"),
			MaxViews:      intParam(c, "max_views"),
			MinRating:     floatParam(c, "min_rating"),
			MaxRating:     floatParam(c, "max_rating"),
			MinReviews:    intParam(c, "min_reviews"),
			MaxReviews:    intParam(c, "max_reviews"),
			SortBy:        c.DefaultQuery("sort_by", "created_at"),
			SortOrder:     c.DefaultQuery("sort_order", "asc"),
		},
		Page:     page,
		PageSize: pageSize,
	}

	if nearParam := c.Query("near"); nearParam != "" {
		point, err := parseNear(nearParam)
		if err != nil {
			h.renderError(c, err)
			return
		}
		req.Near = point
		req.RadiusKM = 10
		if radius := floatParam(c, "radius_km"); radius != nil && *radius > 0 {
			req.RadiusKM = *radius
		}
	}

	items, total, err := h.searches.Search(currentUser(c), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(total, page, pageSize, items))
}

// parseNear reads a "lat,lng" pair.
func parseNear(value string) (*orb.Point, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, apperr.New(apperr.KindInvalidInput, "near must be lat,lng")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "near must be lat,lng")
	}
	point := orb.Point{lng, lat}
	return &point, nil
}

// PopularSearches returns the top queries by cumulative count.
func (h *Handler) PopularSearches(c *gin.Context) {
	popular, err := h.searches.Popular(10)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, popular)
}

// UserSearchHistory returns the actor's own search log.
func (h *Handler) UserSearchHistory(c *gin.Context) {
	entries, err := h.searches.History(currentUser(c), c.DefaultQuery("sort_order", "desc"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
