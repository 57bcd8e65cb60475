package main

import (
	"context"
	"log"
	netHttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hackathonwallah/config"
	"hackathonwallah/db"
	"hackathonwallah/http"
	"hackathonwallah/http/handlers"
	"hackathonwallah/logger"
	"hackathonwallah/repository"
	"hackathonwallah/services"
	"hackathonwallah/services/gateway"
)

func main() {
	// Determine project root by searching upward for go.mod
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal("Error getting current working directory:", err)
	}

	if root := findProjectRoot(cwd); root != "" {
		if err := os.Chdir(root); err != nil {
			log.Fatal("Error changing to project root:", err)
		}
	}

	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig
	logger.SetDefault(logger.New(logger.Config{Level: logger.ParseLevel(cfg.LogLevel)}))
	logger.Info("Starting HackathonWallah API (%s)", cfg.Env)

	// Initialize database
	if err := db.InitDB(); err != nil {
		logger.Fatal("Error initializing database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepository(db.DB)
	hackathons := repository.NewHackathonRepository(db.DB)
	participants := repository.NewParticipantRepository(db.DB)
	payments := repository.NewPaymentRepository(db.DB)
	notifications := repository.NewNotificationRepository(db.DB)
	contacts := repository.NewContactRepository(db.DB)
	webhooks := repository.NewWebhookRepository(db.DB)
	deadLetters := repository.NewDeadLetterRepository(db.DB, cfg.DLQMaxRetries)

	gw, err := gateway.New(cfg)
	if err != nil {
		logger.Fatal("Error configuring payment gateway: %v", err)
	}
	logger.Info("Payment gateway: %s", gw.Name())

	// Event bus is optional; without one e-mail goes out inline
	bus, err := services.NewEventBus(cfg)
	if err != nil {
		logger.Error("Event bus unavailable, continuing without it: %v", err)
		bus = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dlq := services.NewDeadLetterService(deadLetters, bus, cfg.KafkaDLQTopic)
	mailer := services.NewMailer(services.NewSMTPSender(cfg), bus, cfg.KafkaEmailTopic, dlq)
	dlq.RegisterHandler(mailer.Topic(), mailer.Deliver)
	if err := mailer.Start(ctx); err != nil {
		logger.Error("Error starting e-mail consumer: %v", err)
	}
	dlq.StartAutoRetry(ctx, cfg.DLQRetryInterval)

	var alerter services.AdminAlerter
	if cfg.TelegramBotToken != "" {
		tn, err := services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatIDs)
		if err != nil {
			logger.Error("Telegram alerts disabled: %v", err)
		} else {
			alerter = tn
		}
	}

	notifier := services.NewNotificationService(users, notifications, mailer)
	paymentService := services.NewPaymentService(services.PaymentDeps{
		AppURL:       cfg.AppURL,
		Gateway:      gw,
		Payments:     payments,
		Participants: participants,
		Hackathons:   hackathons,
		Users:        users,
		Notifier:     notifier,
		Bus:          bus,
		PaymentTopic: cfg.KafkaPaymentTopic,
		Alerter:      alerter,
	})

	h := &handlers.Handler{
		Profiles:      services.NewProfileService(users),
		Catalog:       services.NewHackathonService(hackathons),
		Registrations: services.NewRegistrationService(hackathons, participants, notifier),
		Payments:      paymentService,
		Webhooks:      services.NewWebhookService(gw, webhooks, paymentService),
		UserSync:      services.NewUserSyncService(cfg.ClerkWebhookSecret, users),
		Notifications: notifier,
		Contacts:      services.NewContactService(contacts),
		Roster:        services.NewRosterService(hackathons, participants),
		DeadLetters:   dlq,
	}

	router := http.NewRouter(http.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		AdminAPIKey:        cfg.AdminAPIKey,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Users:              users,
	}, h)

	server := &netHttp.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != netHttp.ErrServerClosed {
			logger.Fatal("ListenAndServe: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, draining requests...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown: %v", err)
	}

	// stops the consumer and the retry ticker
	cancel()

	if bus != nil {
		if err := bus.Close(); err != nil {
			logger.Error("Error closing event bus: %v", err)
		}
	}

	logger.Info("Server shutdown complete")
}

// findProjectRoot walks up from start and returns the first directory containing go.mod
func findProjectRoot(start string) string {
	dir := start
	for {
		// check for go.mod
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		// move up
		parent := filepath.Dir(dir)
		if parent == dir || strings.HasSuffix(dir, ":\\") || parent == "" {
			break
		}
		dir = parent
	}
	return ""
}
