package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayspot/server/internal/apperr"
	"stayspot/server/internal/review"
)

type createReviewRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Rating    *int   `json:"rating"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// listingPathID reads the listing id from routes shaped /listings/:id/...
func listingPathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindInvalidInput, "invalid listing id")
	}
	return uint(id), nil
}

// CreateReview posts a review for a completed stay.
func (h *Handler) CreateReview(c *gin.Context) {
	listingID, err := listingPathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.reviews.Create(currentUser(c), listingID, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListReviews returns a listing's reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	listingID, err := listingPathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	page, pageSize := h.pageParams(c)
	items, total, err := h.reviews.ListForListing(
		listingID,
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

// UpdateReview edits a review as author or moderator.
func (h *Handler) UpdateReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.reviews.Update(currentUser(c), id, review.UpdateInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReview removes a review, moderator-only.
func (h *Handler) DeleteReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.reviews.Delete(currentUser(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPendingReviews returns the review moderation queue.
func (h *Handler) ListPendingReviews(c *gin.Context) {
	page, pageSize := h.pageParams(c)
	items, total, err := h.reviews.ListPending(currentUser(c), pageSize, (page-1)*pageSize)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(total, page, pageSize, items))
}

// PublishReview marks a review as moderated.
func (h *Handler) PublishReview(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	published, err := h.reviews.Publish(currentUser(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, published)
}
