package routes

import (
	"time"

	"salonbook/handlers"
	"salonbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/slots", bh.GetAvailableSlotsHandler)
		api.POST("", bh.CreateBookingHandler)
		api.POST("/:id/confirm", bh.ConfirmBookingHandler)
		api.POST("/:id/cancel", bh.CancelBookingHandler)
		api.POST("/:id/complete", bh.CompleteBookingHandler)
		api.GET("/:id/export.ics", bh.ExportICSHandler)
		api.GET("/:id/notifications", bh.NotificationLogHandler)

		// Internal surface for queue consumers running out of process.
		api.PUT("/:id/calendar-event", middleware.RequireRole("service"), bh.AttachCalendarEventHandler)
	}
}

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, bh)
}
