package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/opusautomations/site/internal/analytics"
	"github.com/opusautomations/site/internal/config"
	"github.com/opusautomations/site/internal/live"
	"github.com/opusautomations/site/internal/relay"
	"github.com/opusautomations/site/internal/web"
)

func main() {
	var (
		configPath = flag.String("config", "site.yaml", "Path to the YAML config file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		webhookURL = flag.String("webhook-url", "", "Workflow webhook URL (overrides config)")
		webDir     = flag.String("web-dir", "", "Directory with the static frontend (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *webhookURL != "" {
		cfg.Webhook.URL = *webhookURL
	}
	if env := os.Getenv("WEBHOOK_URL"); env != "" && cfg.Webhook.URL == "" {
		cfg.Webhook.URL = env
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Analytics.DBPath), 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	events, err := analytics.NewStore(cfg.Analytics.DBPath)
	if err != nil {
		log.Fatalf("open analytics store: %v", err)
	}
	defer events.Close()

	relayClient := relay.NewClient(cfg.Webhook.URL, cfg.WebhookTimeout())
	hub := live.NewHub(events, cfg.SnapshotInterval())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go hub.Run(ctx)

	// Pick up webhook changes without a restart; everything else needs one.
	if _, err := os.Stat(*configPath); err == nil {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				relayClient.SetURL(next.Webhook.URL)
				log.Printf("config reloaded: webhook configured=%v", next.Webhook.URL != "")
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("config watch stopped: %v", err)
			}
		}()
	}

	handler := web.NewServer(relayClient, events, hub, cfg.Server.WebDir, cfg.RateLimit)

	if !relayClient.Configured() {
		log.Printf("warning: webhook not configured, contact submissions will only be logged")
	}
	log.Printf("site listening on %s (web=%s, analytics=%s)", cfg.Server.Addr, cfg.Server.WebDir, cfg.Analytics.DBPath)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
