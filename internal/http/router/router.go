package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/config"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers"
	"github.com/mkuleshov/gigmarket-backend/internal/http/middleware"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	gigHandler *handlers.GigHandler,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	messageHandler *handlers.MessageHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaRoot))

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(int64(cfg.RateLimitPerMin), time.Minute))

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, time.Minute))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", authHandler.Me)
	}

	// Публичные маршруты
	api.GET("/gigs", gigHandler.Search)
	api.GET("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Get)
	api.GET("/freelancers/:id/profile", middleware.UUIDValidator("id"), profileHandler.Get)
	api.GET("/freelancers/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByFreelancer)
	api.GET("/reviews/:id", middleware.UUIDValidator("id"), reviewHandler.Get)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.PUT("/profile", profileHandler.UpdateMine)

		protected.POST("/gigs", gigHandler.Create)
		protected.GET("/gigs/my", gigHandler.ListMine)
		protected.PUT("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Update)
		protected.DELETE("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Archive)

		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders", orderHandler.ListMine)
		protected.GET("/orders/number/:number", orderHandler.GetByNumber)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.PATCH("/orders/:id/status", middleware.UUIDValidator("id"), orderHandler.Transition)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.POST("/orders/:id/extend", middleware.UUIDValidator("id"), orderHandler.ExtendDelivery)
		protected.GET("/orders/:id/history", middleware.UUIDValidator("id"), orderHandler.History)

		protected.POST("/orders/:id/payment", middleware.UUIDValidator("id"), paymentHandler.Capture)
		protected.POST("/orders/:id/refund", middleware.UUIDValidator("id"), paymentHandler.Refund)
		protected.GET("/payments", paymentHandler.ListMine)
		protected.GET("/payments/earnings", paymentHandler.Earnings)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), paymentHandler.Get)
		protected.POST("/payments/:id/process", middleware.UUIDValidator("id"), paymentHandler.Process)

		protected.POST("/orders/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.Open)
		protected.GET("/orders/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetByOrder)
		protected.GET("/disputes", disputeHandler.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)
		protected.POST("/disputes/:id/comments", middleware.UUIDValidator("id"), disputeHandler.AddComment)
		protected.GET("/disputes/:id/comments", middleware.UUIDValidator("id"), disputeHandler.ListComments)
		protected.POST("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.AddEvidence)
		protected.GET("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.ListEvidence)

		protected.POST("/orders/:id/review", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.PUT("/reviews/:id", middleware.UUIDValidator("id"), reviewHandler.Update)
		protected.DELETE("/reviews/:id", middleware.UUIDValidator("id"), reviewHandler.Delete)
		protected.POST("/reviews/:id/response", middleware.UUIDValidator("id"), reviewHandler.Respond)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.PATCH("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)

		protected.POST("/orders/:id/messages", middleware.UUIDValidator("id"), messageHandler.Send)
		protected.GET("/orders/:id/messages", middleware.UUIDValidator("id"), messageHandler.ListByOrder)
		protected.DELETE("/messages/:id", middleware.UUIDValidator("id"), messageHandler.Delete)

		protected.POST("/media", mediaHandler.Upload)
		protected.GET("/media/:id", middleware.UUIDValidator("id"), mediaHandler.Get)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), mediaHandler.Delete)
	}

	// Администрирование споров
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/disputes", disputeHandler.ListAll)
		admin.PATCH("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.UpdateStatus)
	}

	return r
}
