// Command expiry-sweep moves submissions past their expiry into EXPIRED,
// notifies their authors and warns authors whose window closes soon. Intended
// to run daily from cron.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"editorial-submission-api/config"
	"editorial-submission-api/repository"
	"editorial-submission-api/services"

	"github.com/joho/godotenv"
)

func main() {
	warnDays := flag.Int("warn-days", 7, "send expiration warnings for submissions expiring within this many days")
	dryRun := flag.Bool("dry-run", false, "report what would expire without changing anything")
	flag.Parse()

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

	repos := repository.New(db)
	notifier := services.NewEmailNotifier(config.NewMailer(cfg))
	tokens := services.NewTokenService(repos.Submissions, repos.Feedback, notifier, services.TokenConfig{
		DefaultExpiryDays: cfg.TokenExpiryDays,
		MaxRenewalDays:    cfg.MaxRenewalDays,
		AuthorPortalURL:   cfg.AuthorPortalURL,
		AdminEmails:       cfg.AdminEmailList(),
	})

	expiring, err := tokens.FindExpiring(*warnDays)
	if err != nil {
		log.Fatal("failed to list expiring submissions: ", err)
	}

	if *dryRun {
		stale, err := repos.Submissions.PastExpiry(time.Now())
		if err != nil {
			log.Fatal("failed to list expired submissions: ", err)
		}
		slog.Info("dry run", "would_expire", len(stale), "expiring_soon", len(expiring))
		return
	}

	for _, sub := range expiring {
		days := int(sub.ExpiresAt.Sub(time.Now()).Hours() / 24)
		if err := notifier.Send(services.KindExpirationWarning, []string{sub.AuthorEmail}, map[string]string{
			"AuthorName": sub.AuthorName,
			"Title":      sub.Title,
			"Days":       fmt.Sprintf("%d", days),
			"ExpiresAt":  sub.ExpiresAt.Format("02/01/2006"),
		}); err != nil {
			slog.Error("failed to send expiration warning", "submission_id", sub.SubmissionID, "error", err)
		}
	}

	result, err := tokens.CleanupExpired()
	if err != nil {
		log.Fatal("expiry sweep failed: ", err)
	}

	if admins := cfg.AdminEmailList(); len(admins) > 0 {
		summary := fmt.Sprintf("%d submissões expiraram; %d expiram nos próximos %d dias.",
			result.ExpiredCount, len(expiring), *warnDays)
		if err := notifier.Send(services.KindDailySummary, admins, map[string]string{
			"Summary": summary,
		}); err != nil {
			slog.Error("failed to send daily summary", "error", err)
		}
	}

	slog.Info("expiry sweep done", "expired", result.ExpiredCount, "warned", len(expiring))
}
