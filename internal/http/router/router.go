package router

import (
	"github.com/gin-gonic/gin"

	"github.com/aahara/rescue-backend/internal/config"
	"github.com/aahara/rescue-backend/internal/http/handlers"
	"github.com/aahara/rescue-backend/internal/http/middleware"
	"github.com/aahara/rescue-backend/internal/models"
	"github.com/aahara/rescue-backend/internal/service"
)

// SetupRouter собирает HTTP-маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	listingHandler *handlers.ListingHandler,
	orderHandler *handlers.OrderHandler,
	volunteerHandler *handlers.VolunteerHandler,
	notificationHandler *handlers.NotificationHandler,
	userHandler *handlers.UserHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/listings", listingHandler.ListListings)
	api.GET("/users/:id", middleware.UUIDValidator("id"), userHandler.GetUser)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/listings", listingHandler.CreateListing)
		protected.GET("/listings/my", listingHandler.ListMyListings)
		protected.GET("/listings/:id", middleware.UUIDValidator("id"), listingHandler.GetListing)
		protected.POST("/listings/:id/cancel", middleware.UUIDValidator("id"), listingHandler.CancelListing)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetOrder)
		protected.POST("/orders/:id/accept", middleware.UUIDValidator("id"), orderHandler.AcceptRescue)
		protected.POST("/orders/:id/verify-otp", middleware.UUIDValidator("id"), orderHandler.VerifyOtp)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.PATCH("/orders/:id/status",
			middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleAdmin),
			orderHandler.UpdateStatus,
		)

		protected.GET("/orders/buyer/:buyerId", middleware.UUIDValidator("buyerId"), orderHandler.ListByBuyer)
		protected.GET("/orders/seller/:sellerId", middleware.UUIDValidator("sellerId"), orderHandler.ListBySeller)
		protected.GET("/orders/volunteer/:volunteerId", middleware.UUIDValidator("volunteerId"), orderHandler.ListByVolunteer)
		protected.GET("/orders/rescues/:volunteerId", middleware.UUIDValidator("volunteerId"), volunteerHandler.ListRescueRequests)

		protected.GET("/volunteers/me", volunteerHandler.GetMyProfile)
		protected.PATCH("/volunteers/me/availability", volunteerHandler.UpdateAvailability)

		protected.GET("/users/me/trust-history", userHandler.ListMyTrustHistory)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return r
}
