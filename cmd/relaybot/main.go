// Package main runs the relay bot core: it loads settings, restores the
// autosaved configuration, serves counters and waits for a signal to shut
// down. Chat and social clients attach through the facade.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"

	"github.com/momentics/relaybot/control"
	"github.com/momentics/relaybot/facade"
	"github.com/momentics/relaybot/internal/logging"
)

func main() {
	configFile := flag.String("config", "", "Optional settings file (yaml, json, toml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	settings, err := control.LoadSettings(*configFile)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	logger, err := logging.New(settings.LogLevel, settings.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	bot, err := facade.New(settings, logger)
	if err != nil {
		logger.Fatal("Failed to initialize bot", zap.Error(err))
	}
	if err := bot.Start(); err != nil {
		logger.Fatal("Failed to start bot", zap.Error(err))
	}

	var srv *http.Server
	if settings.MetricsAddr != "" {
		bot.Telemetry().Registry().MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		srv = serveMetrics(settings.MetricsAddr, bot, logger)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
		cancel()
	}
	if err := bot.Shutdown(); err != nil {
		logger.Fatal("Discord unable to save config", zap.Error(err))
	}
	logger.Info("Discord config is updated")
}

func serveMetrics(addr string, bot *facade.Bot, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", bot.Telemetry().Handler())
	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		data, err := sonnet.Marshal(bot.Stats())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
