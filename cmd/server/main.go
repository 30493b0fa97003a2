package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trackify/mailer/internal/api"
	"github.com/trackify/mailer/internal/clients"
	"github.com/trackify/mailer/internal/config"
	"github.com/trackify/mailer/internal/database"
	"github.com/trackify/mailer/internal/mailer"
	"github.com/trackify/mailer/internal/notify"
	"github.com/trackify/mailer/internal/report"
	"github.com/trackify/mailer/internal/scheduler"
	"github.com/trackify/mailer/internal/store"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize database
	if err := database.Initialize(cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	st := store.New(database.GetDB())

	// Collaborator clients
	entriesClient := clients.NewEntriesClient(cfg.Services.Entries)
	usersClient := clients.NewUsersClient(cfg.Services.Users)
	pdfClient := clients.NewPDFClient(cfg.Services.PDF)

	composer := report.NewComposer(entriesClient, usersClient, pdfClient, logger)
	dispatcher := mailer.NewDispatcher(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Sender, cfg.SMTP.Password)
	notifier := notify.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel)

	// Background report scheduler, stopped on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(st, composer, dispatcher, notifier, logger, cfg.Scheduler.Interval, cfg.JWT.Secret)
	go sched.Run(ctx)

	// Initialize and start API server
	server := api.NewServer(st, composer, dispatcher, pdfClient, logger, cfg.JWT.Secret)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
