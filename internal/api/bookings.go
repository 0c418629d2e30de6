package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stayspot/server/internal/apperr"
	"stayspot/server/internal/booking"
)

const dateLayout = "2006-01-02"

type createBookingRequest struct {
	ListingID     uint   `json:"listing_id" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	MsgToLandlord string `json:"msg_to_landlord"`
}

type bookingActionRequest struct {
	Action        string  `json:"action"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	MsgToLandlord *string `json:"msg_to_landlord"`
	MsgToUser     string  `json:"msg_to_user"`
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.KindInvalidInput, "invalid date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindInvalidInput, "invalid id")
	}
	return uint(id), nil
}

// CreateBooking places a new Pending booking for the authenticated renter.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		h.renderError(c, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		h.renderError(c, err)
		return
	}

	created, err := h.bookings.Create(currentUser(c), req.ListingID, start, end, req.MsgToLandlord)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetBooking returns one booking to its renter or the listing owner.
func (h *Handler) GetBooking(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	found, err := h.bookings.Get(currentUser(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateBooking is the renter-side PATCH: `action: cancel` runs the state
// machine, date or message fields run an edit.
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req bookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := currentUser(c)

	if req.Action != "" {
		msg := ""
		if req.MsgToLandlord != nil {
			msg = *req.MsgToLandlord
		}
		updated, err := h.bookings.Transition(actor, id, req.Action, msg)
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
		return
	}

	input := booking.UpdateInput{MsgToLandlord: req.MsgToLandlord}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			h.renderError(c, err)
			return
		}
		input.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			h.renderError(c, err)
			return
		}
		input.EndDate = &end
	}

	updated, err := h.bookings.Update(actor, id, input)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// LandlordBookingAction confirms or declines a pending booking on one of the
// landlord's listings.
func (h *Handler) LandlordBookingAction(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req bookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Action != booking.ActionConfirm && req.Action != booking.ActionDecline {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be confirm or decline"})
		return
	}

	updated, err := h.bookings.Transition(currentUser(c), id, req.Action, req.MsgToUser)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listBookings(c *gin.Context, view booking.View) {
	page, pageSize := h.pageParams(c)
	items, total, err := h.bookings.List(
		currentUser(c),
		view,
		c.QueryArray("status"),
		c.DefaultQuery("sort_by", "created_at"),
		c.DefaultQuery("order", "desc"),
		pageSize,
		(page-1)*pageSize,
	)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(total, page, pageSize, items))
}

// ListBookings is the renter view of the actor's own bookings.
func (h *Handler) ListBookings(c *gin.Context) {
	h.listBookings(c, booking.ViewRenter)
}

// ListLandlordBookings lists bookings on the actor's listings.
func (h *Handler) ListLandlordBookings(c *gin.Context) {
	h.listBookings(c, booking.ViewLandlord)
}

// GetBookedDates returns a listing's confirmed days for the calendar.
func (h *Handler) GetBookedDates(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	days, err := h.bookings.BookedDates(id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	formatted := make([]string, 0, len(days))
	for _, day := range days {
		formatted = append(formatted, day.Format(dateLayout))
	}
	c.JSON(http.StatusOK, gin.H{"booked_dates": formatted})
}

// RunSweep triggers both idempotent sweeps on demand (normally the
// scheduler's job).
func (h *Handler) RunSweep(c *gin.Context) {
	now := time.Now()

	completed, err := h.bookings.CompletePastDue(now)
	if err != nil {
		h.renderError(c, err)
		return
	}
	expired, err := h.listings.ExpirePastDue(now)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings_completed": completed,
		"listings_expired":   expired,
	})
}
