package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/jobs"
	"github.com/addinfi/makemyposts-be/internal/core/llm"
	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/core/scheduler"
	"github.com/addinfi/makemyposts-be/internal/core/social"
	"github.com/addinfi/makemyposts-be/internal/core/upload"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/handlers"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/addinfi/makemyposts-be/internal/shared/config"
	"github.com/addinfi/makemyposts-be/internal/shared/database"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/addinfi/makemyposts-be/internal/web"

	_ "github.com/addinfi/makemyposts-be/cmd/api/docs"
	_ "time/tzdata"
)

// @title Addinfi Studio API
// @version 1.0
// @description Social media content studio: credits, social connections, generation, scheduling and billing
// @contact.name Addinfi Support
// @contact.email support@addinfi.com
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("🚀 Starting makemyposts-api on port %s (%s)", cfg.Port, cfg.Env)

	// Database
	db := database.NewDB(cfg.DatabaseURL, cfg.Env)
	defer db.Close()

	if cfg.DBAutoMigrate {
		tables := append([]interface{}{&auth.Profile{}, &social.OAuthState{}, &jobs.Job{}}, models.All()...)
		if err := db.Migrate(tables...); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	// Repositories
	creditRepo := repositories.NewCreditRepo(db.GORM)
	brandRepo := repositories.NewBrandRepo(db.GORM)
	postRepo := repositories.NewPostRepo(db.GORM)
	tokenRepo := repositories.NewSocialTokenRepo(db.GORM)
	orderRepo := repositories.NewPaymentOrderRepo(db.GORM)

	// Auth
	authService := auth.NewService(db.GORM, cfg.JWTSecret, cfg.SignupCredits)
	googleOAuth := auth.NewGoogleOAuthService(cfg.GoogleClientID)
	requireAuth := auth.AuthMiddleware(authService)

	// Social OAuth
	registry := social.NewRegistry(social.DefaultPlatforms(cfg)...)
	for _, p := range registry.List() {
		if !p.Configured() {
			log.Printf("⚠️  %s OAuth client not configured", p.Name)
		}
	}
	cipher, err := social.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		log.Fatalf("❌ Failed to init token cipher: %v", err)
	}
	if cfg.TokenEncryptionKey == "" {
		log.Println("⚠️  TOKEN_ENCRYPTION_KEY not set, social tokens are only base64 encoded")
	}
	states := social.NewStateManager(social.NewGormStateStore(db.GORM))
	socialClient := social.NewClient(registry, &http.Client{Timeout: 30 * time.Second})

	// Workflows and caption drafting
	workflow := automation.NewClient(time.Duration(cfg.N8NTimeoutSecond) * time.Second)
	captions := llm.NewService(llm.ProviderConfig{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if captions.Enabled() {
		log.Println("🤖 Caption drafting enabled")
	}

	// Payment
	catalog := payment.DefaultCatalog()
	if cfg.PlansFile != "" {
		catalog, err = payment.LoadCatalog(cfg.PlansFile)
		if err != nil {
			log.Fatalf("❌ Failed to load plans: %v", err)
		}
	}
	gateway, err := payment.NewGateway(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize payment gateway: %v", err)
	}

	// Storage
	storage, logoFolder, err := upload.NewProviderFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}
	uploadService := upload.NewService(storage, logoFolder)
	log.Printf("🗂️  Using storage provider: %s", uploadService.GetProviderName())

	// Background jobs
	jobService := jobs.NewService(db.GORM)

	// Services
	creditService := services.NewCreditService(creditRepo)
	brandService := services.NewBrandService(brandRepo)
	scheduleService := services.NewScheduleService(postRepo)
	socialService := services.NewSocialService(socialClient, states, tokenRepo, auth.NewRepository(db.GORM), cipher, cfg.OAuthRedirectURL())
	contentService := services.NewContentService(creditService, brandService, scheduleService, workflow, captions, services.ContentURLs{
		Generate:  cfg.N8NGenerateURL,
		MagicSync: cfg.N8NMagicSyncURL,
	})
	billingService := services.NewBillingService(db.GORM, catalog, gateway, orderRepo, creditService)
	dashboardService := services.NewDashboardService(postRepo, creditService)
	publishService := services.NewPublishService(postRepo, socialService, jobService, workflow, cfg.N8NPublishURL)

	// Handlers
	authHandler := auth.NewHandler(authService, googleOAuth)
	healthHandler := handlers.NewHealthHandler(db.GORM, gateway.Name(), uploadService.GetProviderName())
	creditHandler := handlers.NewCreditHandler(creditService)
	socialHandler := handlers.NewSocialHandler(socialService, cfg.AppURL)
	contentHandler := handlers.NewContentHandler(contentService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	billingHandler := handlers.NewBillingHandler(billingService)
	settingsHandler := handlers.NewSettingsHandler(brandService, authService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	uploadHandler := upload.NewHandler(uploadService, brandService)

	pages, err := web.NewPages(web.Site{AppName: "Addinfi Studio", Company: cfg.UPIPayeeName, AppURL: cfg.AppURL}, catalog)
	if err != nil {
		log.Fatalf("❌ Failed to load page templates: %v", err)
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Addinfi Studio API",
		BodyLimit: upload.LogoMaxSize + 1024*1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AppURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", healthHandler.GetHealth)
	if local, ok := storage.(*upload.LocalProvider); ok {
		app.Static("/uploads", local.BasePath())
	}
	pages.RegisterRoutes(app)

	authHandler.RegisterRoutes(app, requireAuth)
	billingHandler.RegisterWebhooks(app)

	api := app.Group("/api")
	socialHandler.RegisterCallback(api)

	protected := api.Group("", requireAuth)
	creditHandler.RegisterRoutes(protected)
	socialHandler.RegisterRoutes(protected)
	contentHandler.RegisterRoutes(protected)
	scheduleHandler.RegisterRoutes(protected)
	billingHandler.RegisterRoutes(protected)
	settingsHandler.RegisterRoutes(protected)
	uploadHandler.RegisterRoutes(protected)
	dashboardHandler.RegisterRoutes(protected)

	// Workers and cron
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueuePublishing,
		Concurrency:  cfg.PublishWorkers,
		PollInterval: 2 * time.Second,
		Timeout:      time.Duration(cfg.N8NTimeoutSecond+30) * time.Second,
	}, publishService)
	if err := jobService.StartWorkers(ctx); err != nil {
		log.Fatalf("❌ Failed to start workers: %v", err)
	}

	cron := scheduler.New(2 * time.Minute)
	if cfg.N8NPublishURL != "" {
		if err := cron.Add("publish-due-posts", cfg.PublishCron, publishService.SweepDue); err != nil {
			log.Fatalf("❌ Invalid PUBLISH_CRON %q: %v", cfg.PublishCron, err)
		}
	} else {
		log.Println("⚠️  N8N_PUBLISH_URL not set, scheduled posts will not be published")
	}
	_ = cron.Add("purge-oauth-states", "0 */10 * * * *", socialService.PurgeStates)
	_ = cron.Add("cleanup-jobs", "0 0 3 * * *", func(ctx context.Context) error {
		n, err := jobService.Cleanup(ctx, 7*24*time.Hour)
		if err == nil && n > 0 {
			log.Printf("🧹 Removed %d finished jobs", n)
		}
		return err
	})
	cron.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("❌ Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	cron.Stop()
	jobService.StopWorkers()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️  Server shutdown: %v", err)
	}
}
