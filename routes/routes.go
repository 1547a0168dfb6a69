package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hearthworks/hearth-be/controllers"
	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/websocket"
)

// Deps carries everything the router wires together.
type Deps struct {
	Verifier *middleware.Verifier
	Hub      *websocket.Hub

	Auth    *controllers.AuthController
	User    *controllers.UserController
	Booking *controllers.BookingController
	Order   *controllers.OrderController
	Payment *controllers.PaymentController
	Webhook *controllers.WebhookController
	Admin   *controllers.AdminController
}

func SetupRoutes(d Deps) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", d.Auth.Login)
		public.POST("/auth/register", d.Auth.Register)
		public.POST("/auth/refresh", d.Auth.Refresh)
		public.GET("/workspaces", d.User.GetWorkspaces)
		public.GET("/menu", d.User.GetMenu)
	}

	// Stripe calls this; authenticated by signature, not by JWT.
	r.POST("/api/v1/webhooks/stripe", d.Webhook.HandleStripe)

	// Websocket upgrade carries the token as a query param.
	r.GET("/ws", websocket.Handler(d.Hub, d.Verifier))

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(d.Verifier.RequireAuth())
	{
		protected.GET("/profile", d.User.GetProfile)
		protected.PUT("/profile", d.User.UpdateProfile)
		protected.GET("/credits", d.User.GetCredits)
		protected.GET("/credits/transactions", d.User.GetCreditTransactions)
		protected.POST("/wallet", d.User.LinkWallet)

		protected.POST("/bookings", d.Booking.Create)
		protected.GET("/bookings", d.Booking.List)
		protected.DELETE("/bookings/:id", d.Booking.Cancel)

		protected.POST("/orders", d.Order.Create)
		protected.GET("/orders", d.Order.List)
		protected.DELETE("/orders/:id", d.Order.Cancel)

		protected.POST("/payments/refund", d.Payment.Refund)
	}

	// Staff routes
	staff := r.Group("/api/v1/staff")
	staff.Use(d.Verifier.RequireAuth())
	staff.Use(middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	{
		staff.GET("/bookings", d.Admin.GetBookings)
		staff.PUT("/bookings/:id/status", d.Admin.AdvanceBooking)
		staff.PUT("/orders/:id/status", d.Order.AdvanceStatus)
		staff.PUT("/wallet/verify", d.User.VerifyWallet)
	}

	// Admin only routes
	admin := r.Group("/api/v1/admin")
	admin.Use(d.Verifier.RequireAuth())
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		// User management
		admin.GET("/users", d.Admin.GetUsers)
		admin.POST("/users", d.Admin.CreateUser)
		admin.PUT("/users/:id/role", d.Admin.UpdateRole)
		admin.PUT("/users/:id/active", d.Admin.SetUserActive)

		// Catalog management
		admin.GET("/plans", d.Admin.GetPlans)
		admin.POST("/plans", d.Admin.CreatePlan)
		admin.PUT("/plans/:id", d.Admin.UpdatePlan)
		admin.GET("/workspaces", d.Admin.GetWorkspaces)
		admin.POST("/workspaces", d.Admin.CreateWorkspace)
		admin.PUT("/workspaces/:id", d.Admin.UpdateWorkspace)
		admin.POST("/menu", d.Admin.CreateMenuItem)
		admin.PUT("/menu/:id", d.Admin.UpdateMenuItem)
		admin.DELETE("/menu/:id", d.Admin.DeleteMenuItem)

		// Reporting
		admin.GET("/dashboard", d.Admin.GetDashboard)
		admin.GET("/bookings/export", d.Admin.ExportBookings)
	}

	return r
}
