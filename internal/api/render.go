package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayspot/server/internal/apperr"
)

// statusForKind maps the stable error kinds to HTTP status codes.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidInput,
		apperr.KindInvalidRange,
		apperr.KindCancellationWindowClosed,
		apperr.KindDuplicateReview,
		apperr.KindIneligibleBooking:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// renderError surfaces a domain error as a structured body with a stable
// kind, and hides internals behind a generic 500.
func (h *Handler) renderError(c *gin.Context, err error) {
	if appErr := apperr.AsError(err); appErr != nil {
		c.JSON(statusForKind(appErr.Kind), gin.H{
			"error": appErr.Message,
			"kind":  appErr.Kind.String(),
		})
		return
	}

	h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// pageParams reads and clamps the page/page_size query parameters.
func (h *Handler) pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size",
		strconv.Itoa(h.cfg.Pagination.DefaultPageSize)))
	if pageSize < 1 {
		pageSize = h.cfg.Pagination.DefaultPageSize
	}
	if pageSize > h.cfg.Pagination.MaxPageSize {
		pageSize = h.cfg.Pagination.MaxPageSize
	}
	return page, pageSize
}

// paginated is the list response envelope.
func paginated(count int64, page, pageSize int, results interface{}) gin.H {
	return gin.H{
		"count":     count,
		"page":      page,
		"page_size": pageSize,
		"results":   results,
	}
}
