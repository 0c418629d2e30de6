package api

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stayspot/server/internal/database"
	"stayspot/server/internal/models"
)

const (
	ctxUserKey      = "current_user"
	headerUserID    = "X-User-ID"
	headerRequestID = "X-Request-ID"
)

// CORSMiddleware builds the CORS policy from the configured origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	if len(origins) == 1 && origins[0] == "*" {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	conf.AllowHeaders = append(conf.AllowHeaders, headerUserID, headerRequestID)
	return cors.New(conf)
}

// RequestIDMiddleware tags every request with an id for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// AuthMiddleware resolves the current actor from the X-User-ID header set by
// the upstream identity collaborator. Requests without a resolvable user
// proceed anonymously; handlers that need an actor use RequireAuth.
func AuthMiddleware(db *database.Database, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(headerUserID)
		if header == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseUint(header, 10, 64)
		if err != nil {
			c.Next()
			return
		}

		user, err := db.GetUser(uint(id))
		if err != nil {
			logger.WithError(err).Error("Failed to resolve user")
			c.Next()
			return
		}
		if user != nil && user.IsActive {
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// currentUser returns the resolved actor, or nil for anonymous requests.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
