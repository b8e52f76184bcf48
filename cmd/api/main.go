package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/cv-screener/internal/bootstrap"
	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/handlers"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

// multipart overhead on top of the per-file limit
const formOverhead = 1 << 20

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	appLogger := bootstrap.NewLogger(cfg)
	slog.SetDefault(appLogger)
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Backends
	storage, err := bootstrap.NewStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	sessions, closeSessions, err := bootstrap.NewSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize session store: %v", err)
	}
	defer closeSessions()
	log.Printf("✅ Storage (%s) and sessions (%s) initialized\n", cfg.Storage.Backend, cfg.Session.Backend)

	analysis, gemini, err := bootstrap.NewAnalysisClient(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM provider: %v", err)
	}
	log.Printf("✅ LLM provider %s initialized (model %s)\n", cfg.LLM.Provider, cfg.LLMModel())

	var embedder services.Embedder
	if gemini != nil {
		embedder = gemini
	}
	index, err := bootstrap.NewReportIndex(ctx, cfg, embedder, appLogger)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if index != nil {
		log.Println("✅ Qdrant report search enabled")
	}

	// Services
	tokens := services.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(userRepo, sessions, tokens, cfg.Auth.BcryptCost, appLogger)
	gateway := services.NewPersistenceGateway(storage, reportRepo, index, appLogger)
	catalog := services.NewReportCatalog(reportRepo, storage, index, appLogger)
	adminService := services.NewAdminService(userRepo, reportRepo, authService, gateway, appLogger)

	var indexer services.ReportIndexer
	if index != nil {
		indexer = catalog
	}
	screening := services.NewScreeningService(
		services.NewTextExtractor(),
		analysis,
		services.NewReportAssembler(cfg.Report.BrandName),
		gateway,
		indexer,
		services.ScreeningLimits{
			MaxFileSize:     cfg.Storage.MaxFileSize,
			MaxCandidateCVs: cfg.Storage.MaxCandidateCVs,
		},
		appLogger,
	)
	log.Println("✅ Services initialized successfully")

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPasswordHash != "" {
		admin, created, err := authService.EnsureAdmin(cfg.Auth.AdminEmail, cfg.Auth.AdminName, cfg.Auth.AdminPasswordHash)
		if err != nil {
			log.Fatalf("❌ Failed to provision administrator: %v", err)
		}
		if created {
			log.Printf("✅ Administrator %s created\n", admin.Email)
		}
	}

	// Handlers
	routes := handlers.Routes(&handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Session:   handlers.NewSessionHandler(sessions),
		Screening: handlers.NewScreeningHandler(screening, sessions, cfg.Storage.MaxFileSize, appLogger),
		Reports:   handlers.NewReportHandler(catalog),
		Admin:     handlers.NewAdminHandler(adminService),
	})
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "JD-CV Screener API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize)*(cfg.Storage.MaxCandidateCVs+1) + formOverhead,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")
	handlers.NewDispatcher(tokens, sessions, userRepo, appLogger).Register(api, routes)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		endpoints := make([]string, 0, len(routes))
		for _, r := range routes {
			endpoints = append(endpoints, r.Method+" /api/v1"+r.Path)
		}
		return c.JSON(fiber.Map{
			"message":   "JD-CV Screener API",
			"version":   "1.0.0",
			"search":    index != nil,
			"endpoints": endpoints,
		})
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("\n🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
		os.Exit(1)
	}

	log.Println("✅ Server stopped")
}
