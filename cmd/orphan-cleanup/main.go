// Command orphan-cleanup removes upload records whose submission no longer
// exists, deleting the stored objects from the media bucket as well. Intended
// to run weekly from cron.
package main

import (
	"log"
	"log/slog"

	"editorial-submission-api/config"
	"editorial-submission-api/repository"
	"editorial-submission-api/services"
	"editorial-submission-api/storage"

	"github.com/joho/godotenv"
)

func main() {
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
	tokens := services.NewTokenService(repos.Submissions, repos.Feedback, notifier, services.TokenConfig{
		DefaultExpiryDays: cfg.TokenExpiryDays,
		MaxRenewalDays:    cfg.MaxRenewalDays,
		AuthorPortalURL:   cfg.AuthorPortalURL,
		AdminEmails:       cfg.AdminEmailList(),
	})
	uploads := services.NewUploadGateway(repos.Files, repos.Submissions, tokens, store, services.UploadLimits{})

	result, err := uploads.CleanupOrphaned()
	if err != nil {
		log.Fatal("orphan cleanup failed: ", err)
	}

	slog.Info("orphan cleanup done", "deleted", result.Deleted, "errors", len(result.Errors))
	for _, e := range result.Errors {
		slog.Warn("orphan cleanup item failed", "detail", e)
	}
}
