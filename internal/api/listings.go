package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stayspot/server/internal/listing"
)

type listingRequest struct {
	Title                 string   `json:"title" binding:"required"`
	Description           string   `json:"description" binding:"required"`
	Address               string   `json:"address"`
	Location              string   `json:"location"`
	City                  string   `json:"city"`
	Country               string   `json:"country"`
	Price                 float64  `json:"price" binding:"required"`
	Rooms                 int      `json:"rooms"`
	PropertyType          string   `json:"property_type"`
	AvailabilityStartDate *string  `json:"availability_start_date"`
	AvailabilityEndDate   *string  `json:"availability_end_date"`
	Latitude              *float64 `json:"latitude"`
	Longitude             *float64 `json:"longitude"`
	ContactInfo           string   `json:"contact_info"`
	Tags                  []string `json:"tags"`
}

type rejectListingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (r *listingRequest) toInput() (listing.Input, error) {
	input := listing.Input{
		Title:        r.Title,
		Description:  r.Description,
		Address:      r.Address,
		Location:     r.Location,
		City:         r.City,
		Country:      r.Country,
		Price:        r.Price,
		Rooms:        r.Rooms,
		PropertyType: r.PropertyType,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		ContactInfo:  r.ContactInfo,
		Tags:         r.Tags,
	}
	if r.AvailabilityStartDate != nil {
		parsed, err := parseDate(*r.AvailabilityStartDate)
		if err != nil {
			return input, err
		}
		input.AvailabilityStartDate = &parsed
	}
	if r.AvailabilityEndDate != nil {
		parsed, err := parseDate(*r.AvailabilityEndDate)
		if err != nil {
			return input, err
		}
		input.AvailabilityEndDate = &parsed
	}
	return input, nil
}

// CreateListing publishes a new listing owned by the actor.
func (h *Handler) CreateListing(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.renderError(c, err)
		return
	}

	created, err := h.listings.Create(currentUser(c), input)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetListing returns one listing and counts the view.
func (h *Handler) GetListing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	viewerKey := c.ClientIP()
	if user := currentUser(c); user != nil {
		viewerKey = "user:" + c.GetHeader(headerUserID)
	}

	found, err := h.listings.Get(currentUser(c), id, viewerKey)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateListing edits a listing as owner or moderator.
func (h *Handler) UpdateListing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.renderError(c, err)
		return
	}

	updated, err := h.listings.Update(currentUser(c), id, input)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteListing removes a listing as owner or moderator.
func (h *Handler) DeleteListing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.listings.Delete(currentUser(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPendingListings returns the moderation queue.
func (h *Handler) ListPendingListings(c *gin.Context) {
	page, pageSize := h.pageParams(c)
	items, total, err := h.listings.ListPending(currentUser(c), pageSize, (page-1)*pageSize)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(total, page, pageSize, items))
}

// VerifyListing approves a pending listing.
func (h *Handler) VerifyListing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	verified, err := h.listings.Verify(currentUser(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, verified)
}

// RejectListing declines a pending listing with a reason.
func (h *Handler) RejectListing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req rejectListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	rejected, err := h.listings.Reject(currentUser(c), id, req.Reason)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rejected)
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
