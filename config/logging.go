package config

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "editorial-api.log")
}

// InitLogging prepares the log file and installs the default slog logger:
// text at debug level in development, JSON at info level in production, with
// an optional Sentry handler for errors when a DSN is configured.
func InitLogging(cfg *Config) *os.File {
	logDir := filepath.Dir(LogFilePath())
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		LogWriter = os.Stdout
	} else {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	}
	log.SetOutput(LogWriter)

	var handlers []slog.Handler
	if cfg.IsProduction() {
		handlers = append(handlers, slog.NewJSONHandler(LogWriter, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		handlers = append(handlers, slog.NewTextHandler(LogWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Printf("Warning: Failed to initialize Sentry: %v", err)
		} else {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}
	slog.SetDefault(slog.New(handler))

	return logFile
}
