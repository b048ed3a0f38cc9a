package main

import (
	"log"
	"log/slog"
	"os"

	"editorial-submission-api/cache"
	"editorial-submission-api/config"
	"editorial-submission-api/controllers"
	"editorial-submission-api/middleware"
	"editorial-submission-api/repository"
	"editorial-submission-api/routes"
	"editorial-submission-api/services"
	"editorial-submission-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	logFile := config.InitLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	cache.InitRedis(cfg.RedisAddr)

	store, err := storage.NewS3Storage(storage.S3Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		log.Fatal("failed to initialize media storage: ", err)
	}

	repos := repository.New(db)
	notifier := services.NewEmailNotifier(config.NewMailer(cfg))

	tokenCfg := services.TokenConfig{
		DefaultExpiryDays: cfg.TokenExpiryDays,
		MaxRenewalDays:    cfg.MaxRenewalDays,
		AuthorPortalURL:   cfg.AuthorPortalURL,
		AdminEmails:       cfg.AdminEmailList(),
	}
	tokens := services.NewTokenService(repos.Submissions, repos.Feedback, notifier, tokenCfg)
	submissions := services.NewSubmissionService(repos, tokens, notifier, tokenCfg)
	engine := services.NewAdminReviewEngine(repos, tokens, notifier, cfg.PublishBaseURL)
	uploads := services.NewUploadGateway(repos.Files, repos.Submissions, tokens, store, services.UploadLimits{
		MaxImageBytes:    int64(cfg.MaxImageMB) * 1024 * 1024,
		MaxDocumentBytes: int64(cfg.MaxDocumentMB) * 1024 * 1024,
		MaxAttachments:   cfg.MaxAttachments,
	})

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
	corsOrigin := ""
	if cfg.IsProduction() {
		corsOrigin = cfg.AuthorPortalURL
	}
	router.Use(middleware.CORSMiddleware(corsOrigin))

	routes.SetupRoutes(router, routes.Controllers{
		Auth:   controllers.NewAuthController(repos.Admins, cfg.JWTSecret),
		Author: controllers.NewAuthorSubmissionController(submissions, uploads),
		Admin:  controllers.NewAdminReviewController(engine, tokens, uploads),
	}, cfg.JWTSecret, repos.Admins)

	slog.Info("server starting",
		"port", cfg.ServerPort,
		"environment", cfg.Environment,
	)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
