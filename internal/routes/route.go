package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/eventgate/internal/container"
	"github.com/joshua-takyi/eventgate/internal/handlers"
	"github.com/joshua-takyi/eventgate/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{c.Config.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{
				"status":  "OK",
				"service": "eventgate-api",
			})
		})

		// public routes
		v1.POST("/auth/register", handlers.Register(c.UserService, c.Config))
		v1.POST("/auth/login", handlers.Login(c.UserService, c.Config))
		v1.GET("/auth/google", handlers.GoogleAuth(c.Config))
		v1.GET("/auth/google/callback", handlers.GoogleCallback(c.UserService, c.Config))

		// gateway webhooks authenticate with their own signature
		v1.POST("/payments/webhook", handlers.PaymentWebhook(c.PaymentService))

		// ticket status links carry their own signature
		v1.GET("/tickets/:id/status", handlers.PublicTicketStatus(c.TicketService))
	}

	// Event browsing is public, but an attached token lets organizers
	// and admins see unpublished events.
	browse := v1.Group("/events")
	browse.Use(middleware.OptionalAuth(c.Config.JWTSecret))
	{
		browse.GET("/", handlers.ListEvents(c.EventService))
		browse.GET("/:id", handlers.GetEvent(c.EventService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.Config.JWTSecret, c.Logger))

	protected.GET("/auth/me", handlers.GetCurrentUser(c.UserService))

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("/", handlers.CreateEvent(c.EventService))
		eventRoutes.PUT("/:id", handlers.UpdateEvent(c.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(c.EventService))
		eventRoutes.GET("/mine", handlers.ListMyEvents(c.EventService))
	}

	ticketRoutes := protected.Group("/tickets")
	{
		ticketRoutes.POST("/free", handlers.CreateFreeTicket(c.TicketService))
		ticketRoutes.GET("/my-tickets", handlers.ListMyTickets(c.TicketService))
		ticketRoutes.GET("/:id", handlers.GetTicket(c.TicketService, c.EventService))
		ticketRoutes.POST("/verify", handlers.VerifyTicket(c.TicketService))
		ticketRoutes.GET("/event/:eventId", handlers.ListEventTickets(c.TicketService))
	}

	paymentRoutes := protected.Group("/payments")
	{
		paymentRoutes.POST("/orders", handlers.CreateOrder(c.PaymentService))
		paymentRoutes.POST("/verify", handlers.VerifyPayment(c.PaymentService))
	}

	return r
}
