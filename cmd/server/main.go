package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/toonvest/backend/docs"
	"github.com/toonvest/backend/internal/catalog"
	"github.com/toonvest/backend/internal/config"
	"github.com/toonvest/backend/internal/database"
	"github.com/toonvest/backend/internal/events"
	"github.com/toonvest/backend/internal/handlers"
	mW "github.com/toonvest/backend/internal/middleware"
	"github.com/toonvest/backend/internal/services"
	"github.com/toonvest/backend/internal/store"
)

// @title ToonVest Backend API
// @version 1.0
// @description API for the webtoon investment platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "ToonVest Backend API"
	docs.SwaggerInfo.Description = "API for the webtoon investment platform"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ledgerConfig := config.LoadLedgerConfig()

	// Initialize infrastructure
	db := database.InitDatabase()
	defer db.Close()

	redisClient, err := database.InitRedis()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	docStore := store.New(redisClient)
	bus := events.NewBus()
	titleCatalog := catalog.New()

	// Log every investment movement for traceability
	bus.Subscribe(events.TypeInvestmentUpdate, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.InvestmentUpdated); ok {
			log.Printf("[BUS] Investment update: user=%s title=%s amount=%d balance=%d",
				e.UserID, e.TitleID, e.Amount, e.NewBalance)
		}
	})
	bus.Subscribe(events.TypeProgressUpdate, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.TitleProgressUpdated); ok {
			log.Printf("[BUS] Progress update: title=%s raised=%d investors=%d pct=%.1f",
				e.TitleID, e.CurrentRaised, e.TotalInvestors, e.ProgressPercent)
		}
	})

	// Initialize services
	ledgerService := services.NewLedgerService(docStore, titleCatalog, bus, ledgerConfig)
	mileageService := services.NewMileageService(docStore, bus, ledgerConfig)
	qrService := services.NewQRService(redisClient, ledgerService)
	settlementService := services.NewSettlementService(docStore, ledgerConfig)
	authService := services.NewAuthService(db, redisClient, docStore, ledgerConfig)

	catalogHandler := handlers.NewCatalogHandler(titleCatalog, docStore)
	mileageHandler := handlers.NewMileageHandler(mileageService)
	walletHandler := handlers.NewWalletHandler(ledgerService, qrService, docStore)

	// Periodic settlement of pending refunds
	scheduler := cron.New()
	scheduler.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := settlementService.SettlePendingRefunds(ctx); err != nil {
			log.Printf("[SETTLEMENT] Run failed: %v", err)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for title covers
	r.Handle("/static/covers/*", http.StripPrefix("/static/covers/",
		mW.StaticFileServer("./static/covers")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/titles", catalogHandler.ListTitles)
		r.Get("/titles/{titleId}", catalogHandler.GetTitle)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			// Investment ledger
			r.Post("/investments/validate", ledgerService.ValidateInvestment)
			r.Post("/investments", ledgerService.CreateInvestment)
			r.Get("/investments", ledgerService.ListInvestments)
			r.Delete("/investments/{investmentId}", ledgerService.CancelInvestment)

			// Wallet
			r.Post("/wallet/recharge", walletHandler.Recharge)
			r.Post("/wallet/qr/generate", walletHandler.GenerateQR)
			r.Post("/wallet/qr/process", walletHandler.ProcessQR)
			r.Get("/wallet/history", walletHandler.GetHistory)
			r.Get("/wallet/payment-methods", walletHandler.ListPaymentMethods)
			r.Post("/wallet/payment-methods", walletHandler.AddPaymentMethod)

			// Mileage
			r.Get("/mileage", mileageHandler.GetMileage)
			r.Get("/mileage/rewards", mileageHandler.ListRewards)
			r.Post("/mileage/check-in", mileageHandler.CheckIn)
			r.Post("/mileage/redeem", mileageHandler.Redeem)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
