package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/config"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/geoip"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/logger"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/scanner"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/source"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/store"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/telegram"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/web"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel)

	seedURLs := store.DefaultSources
	if cfg.SourcesFile != "" {
		extra, err := source.LoadSeedList(cfg.SourcesFile)
		if err != nil {
			slog.Warn("seed_list_load_failed", "path", cfg.SourcesFile, "error", err)
		} else {
			seedURLs = append(append([]string{}, seedURLs...), extra...)
		}
	}

	st, err := store.Open(cfg.DBPath, seedURLs)
	if err != nil {
		slog.Error("store_open_failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var geodb *geoip.Database
	if cfg.GeoIPPath != "" {
		geodb, err = geoip.Open(cfg.GeoIPPath)
		if err != nil {
			slog.Warn("geoip_open_failed", "path", cfg.GeoIPPath, "error", err)
		} else {
			defer geodb.Close()
		}
	}

	sc := scanner.New(st, cfg, geodb)

	if cfg.BotToken != "" && cfg.ChannelID != "" {
		notifier := telegram.NewNotifier(cfg.BotToken, cfg.ChannelID)
		sc.OnCycleFinished = func(stats model.ScanStats) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := notifier.SendScanSummary(ctx, stats); err != nil {
				slog.Warn("summary_post_failed", "error", err)
			}
		}
	}

	srv := web.New(st, sc, cfg)
	go func() {
		slog.Info("web_server_listening", "addr", cfg.WebAddr)
		if err := srv.Start(); err != nil {
			slog.Error("web_server_failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First harvest right away; the ticker owns the cadence after that.
	sc.TriggerScan(ctx)

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !sc.TriggerScan(ctx) {
				slog.Warn("scan_still_running")
			}
		case <-ctx.Done():
			slog.Info("shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("web_shutdown_failed", "error", err)
			}
			return
		}
	}
}
