// Command mpc-node runs a single participant of the additive secure
// multi-party summation protocol: it serves the peer-facing HTTP API,
// drains its outbox in the background and pulls missing progress from
// peers until every local process converges.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VGLoic/mpc-exploration/internal/addition"
	"github.com/VGLoic/mpc-exploration/internal/config"
	"github.com/VGLoic/mpc-exploration/internal/httpapi"
	"github.com/VGLoic/mpc-exploration/internal/observability"
	"github.com/VGLoic/mpc-exploration/internal/outbox"
	"github.com/VGLoic/mpc-exploration/internal/peerclient"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	obsConfig := observability.LoadConfigFromEnv()
	obsConfig.LogLevel = cfg.LogLevel
	obsConfig.SentryDSN = cfg.SentryDSN
	obsConfig.DDEnv = cfg.DDEnv

	obs, err := observability.NewManager(obsConfig)
	if err != nil {
		return fmt.Errorf("building observability manager: %w", err)
	}
	if err := obs.Initialize(); err != nil {
		obs.Sugar().Warnw("⚠️  failed to initialize observability", "error", err)
	}
	defer obs.Shutdown()

	logger := obs.Logger()
	obs.Sugar().Infow("🚀 starting mpc-node", "server_peer_id", cfg.ServerPeerID, "port", cfg.Port, "peers", len(cfg.Peers))

	metrics := observability.NewMetrics()

	repo := addition.NewInMemoryRepository()

	outboxWakeup := make(chan struct{}, 1)
	outboxRepo := outbox.NewInMemoryRepository(outboxWakeup)

	peerURLs := make(map[uint8]string, len(cfg.Peers))
	peerIDs := make([]uint8, len(cfg.Peers))
	for i, peer := range cfg.Peers {
		peerURLs[peer.ID] = peer.URL
		peerIDs[i] = peer.ID
	}
	client := peerclient.NewHTTPClient(cfg.ServerPeerID, peerURLs)

	dispatcher := outbox.NewDispatcher(outboxRepo, client, outboxWakeup, logger, metrics)

	orchestratorWakeup := make(chan struct{}, 1)
	orchestrator := addition.NewOrchestrator(repo, client, cfg.ServerPeerID, peerIDs, orchestratorWakeup, logger, metrics)

	server := httpapi.NewServer(cfg.ServerPeerID, cfg.Peers, repo, outboxRepo, orchestratorWakeup, logger, obs, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Run(ctx)
	go orchestrator.Run(ctx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router(),
	}

	serveErrs := make(chan error, 1)
	go func() {
		obs.Sugar().Infow("📡 http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrs <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serveErrs:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during http server shutdown", zap.Error(err))
	}

	obs.Sugar().Info("✅ mpc-node shutdown complete")
	return nil
}
