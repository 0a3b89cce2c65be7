package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avhq/jsonrpc-gateway/config"
	"github.com/avhq/jsonrpc-gateway/internal/cache"
	"github.com/avhq/jsonrpc-gateway/internal/dispatcher"
	"github.com/avhq/jsonrpc-gateway/internal/gateway"
	"github.com/avhq/jsonrpc-gateway/internal/handler"
	"github.com/avhq/jsonrpc-gateway/internal/httpserver"
	"github.com/avhq/jsonrpc-gateway/internal/metrics"
	"github.com/avhq/jsonrpc-gateway/internal/node"
	"github.com/avhq/jsonrpc-gateway/internal/prober"
	"github.com/avhq/jsonrpc-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nodes, err := initializeNodes(cfg, log)
	if err != nil {
		log.Error("failed to initialize upstream nodes", slog.Any("err", err))
		os.Exit(1)
	}

	disp := dispatcher.New(nodes)

	collector := metrics.NewCollector(256, log)
	collector.Start(ctx)

	probeInterval, err := time.ParseDuration(cfg.Prober.Interval)
	if err != nil {
		log.Error("invalid probe interval", slog.Any("err", err))
		os.Exit(1)
	}
	go prober.New(nodes, probeInterval, log, collector).Run(ctx)

	cacheTTL, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		log.Error("invalid cache ttl", slog.Any("err", err))
		os.Exit(1)
	}
	respCache := cache.New(cfg.Cache.Capacity, cacheTTL)

	gw := gateway.New(respCache, disp, cfg.Cache.DenyMethods, log, collector)
	h := handler.New(log, gw, disp)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(h, collector))
	if err != nil {
		log.Error("failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("error starting gateway", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeNodes(cfg *config.Config, log *slog.Logger) ([]*node.Node, error) {
	cooldown, err := time.ParseDuration(cfg.Breaker.Cooldown)
	if err != nil {
		return nil, err
	}

	callTimeout, err := time.ParseDuration(cfg.Breaker.CallTimeout)
	if err != nil {
		return nil, err
	}

	breakerCfg := node.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cooldown,
		CallTimeout:      callTimeout,
	}

	httpClient := &http.Client{Timeout: callTimeout}

	var nodes []*node.Node
	for _, up := range cfg.Upstreams {
		u, err := url.Parse(up.Endpoint)
		if err != nil {
			log.Error("failed to parse upstream endpoint",
				slog.String("name", up.Name),
				slog.String("endpoint", up.Endpoint),
				slog.String("error", err.Error()))
			continue
		}
		nodes = append(nodes, node.New(up.Name, u, httpClient, breakerCfg))
	}

	if len(nodes) == 0 {
		return nil, os.ErrInvalid
	}

	return nodes, nil
}
