package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/sales-automator/internal/api"
	"github.com/ignite/sales-automator/internal/config"
	"github.com/ignite/sales-automator/internal/lead"
	"github.com/ignite/sales-automator/internal/mail"
	"github.com/ignite/sales-automator/internal/pkg/logger"
	"github.com/ignite/sales-automator/internal/repository/memory"
	"github.com/ignite/sales-automator/internal/repository/postgres"
	"github.com/ignite/sales-automator/internal/repository/supabase"
	"github.com/ignite/sales-automator/internal/template"
	"github.com/ignite/sales-automator/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	log := logger.New(logger.ParseLevel(os.Getenv("LOG_LEVEL")), os.Stderr)

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Error("load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	repo, storeName, cleanup, err := openStore(cfg, log)
	if err != nil {
		log.Error("open lead store", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer cleanup()

	dispatcher, err := mail.NewDispatcher(cfg, log)
	if err != nil {
		log.Error("configure email transport", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	engine := template.NewEngine(cfg.Mail.FromName, cfg.Mail.FromEmail, os.Getenv("SENDER_PHONE"))
	svc := lead.NewService(repo, engine, dispatcher, cfg.Sending.BulkDelay(), log)
	reconciler := webhook.NewReconciler(repo, nil, log)

	handlers := api.NewHandlers(svc, engine, reconciler, dispatcher.TransportName(), storeName, log)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]interface{}{
			"addr":      addr,
			"store":     storeName,
			"transport": dispatcher.TransportName(),
		})
		errCh <- server.ListenAndServe(addr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		log.Error("server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", map[string]interface{}{"error": err.Error()})
	}
}

// openStore picks the lead repository: demo mode and missing backends get
// the seeded in-memory store, Supabase wins over a direct database URL.
func openStore(cfg *config.Config, log *logger.Logger) (lead.Repository, string, func(), error) {
	noop := func() {}

	switch {
	case cfg.Demo:
		log.Info("demo mode: using in-memory store with sample data", nil)
		return memory.NewWithDemoData(), "memory", noop, nil

	case cfg.Supabase.Configured():
		repo := supabase.NewLeadRepo(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Timeout())
		return repo, "supabase", noop, nil

	case cfg.Database.URL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, "", noop, err
		}
		return postgres.NewLeadRepo(db), "postgres", func() { db.Close() }, nil

	default:
		log.Warn("no store configured, using in-memory store with sample data", nil)
		return memory.NewWithDemoData(), "memory", noop, nil
	}
}
