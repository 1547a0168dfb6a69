package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hearthworks/hearth-be/config"
	"github.com/hearthworks/hearth-be/controllers"
	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/routes"
	"github.com/hearthworks/hearth-be/services"
	"github.com/hearthworks/hearth-be/websocket"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		zap.L().Info("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		zap.L().Fatal("JWT_SECRET is required")
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		zap.L().Fatal("failed to connect database", zap.Error(err))
	}

	sqlDB, err := config.GetSQLDB(db)
	if err != nil {
		zap.L().Fatal("failed to unwrap sql.DB", zap.Error(err))
	}
	if err := config.RunMigrations(sqlDB); err != nil {
		zap.L().Fatal("failed to run migrations", zap.Error(err))
	}

	hub := websocket.NewHub()
	go hub.Run()

	verifier := middleware.NewVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)

	payments := services.NewStripeProvider(cfg.StripeSecretKey)
	creditService := services.NewCreditService(db)
	pricingService := services.NewPricingService()
	authService := services.NewAuthService(db, verifier, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	bookingService := services.NewBookingService(db, creditService, pricingService, payments, hub)
	orderService := services.NewOrderService(db, payments, hub)
	reconciler := services.NewReconciler(db, creditService, hub)

	r := routes.SetupRoutes(routes.Deps{
		Verifier: verifier,
		Hub:      hub,
		Auth:     controllers.NewAuthController(authService),
		User:     controllers.NewUserController(db, creditService),
		Booking:  controllers.NewBookingController(bookingService),
		Order:    controllers.NewOrderController(orderService),
		Payment:  controllers.NewPaymentController(db, payments),
		Webhook:  controllers.NewWebhookController(reconciler, cfg.StripeWebhookSecret),
		Admin:    controllers.NewAdminController(db, authService, bookingService),
	})

	zap.L().Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zap.L().Fatal("failed to start server", zap.Error(err))
	}
}
