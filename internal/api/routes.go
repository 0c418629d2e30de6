package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stayspot/server/config"
	"stayspot/server/internal/database"
)

// SetupRoutes wires all endpoints onto the router and returns the handler so
// the caller can hand its engines to the scheduler.
func SetupRoutes(router *gin.Engine, db *database.Database, cfg *config.Config, logger *logrus.Logger) *Handler {
	handler := NewHandler(db, cfg, logger)

	router.Use(CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(RequestIDMiddleware())
	router.Use(AuthMiddleware(db, handler.logger))

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		// Public reads
		api.GET("/search", handler.SearchListings)
		api.GET("/listings/:id", handler.GetListing)
		api.GET("/listings/:id/reviews", handler.ListReviews)

		authed := api.Group("")
		authed.Use(RequireAuth())
		{
			authed.POST("/bookings", handler.CreateBooking)
			authed.GET("/bookings", handler.ListBookings)
			authed.GET("/bookings/:id", handler.GetBooking)
			authed.PATCH("/bookings/:id", handler.UpdateBooking)
			authed.GET("/landlord/bookings", handler.ListLandlordBookings)
			authed.PATCH("/landlord/bookings/:id", handler.LandlordBookingAction)
			authed.GET("/listings/:id/booked-dates", handler.GetBookedDates)

			authed.POST("/listings", handler.CreateListing)
			authed.PUT("/listings/:id", handler.UpdateListing)
			authed.DELETE("/listings/:id", handler.DeleteListing)

			authed.POST("/listings/:id/reviews", handler.CreateReview)
			authed.PATCH("/reviews/:id", handler.UpdateReview)
			authed.DELETE("/reviews/:id", handler.DeleteReview)

			authed.GET("/search/popular", handler.PopularSearches)
			authed.GET("/search/history", handler.UserSearchHistory)

			authed.GET("/moderation/listings", handler.ListPendingListings)
			authed.POST("/moderation/listings/:id/verify", handler.VerifyListing)
			authed.POST("/moderation/listings/:id/reject", handler.RejectListing)
			authed.GET("/moderation/reviews", handler.ListPendingReviews)
			authed.POST("/moderation/reviews/:id/publish", handler.PublishReview)

			authed.POST("/admin/sweep", handler.RunSweep)
		}
	}

	return handler
}
