package main

import (
	"encoding/json"
	"net/http"

	"github.com/avhq/jsonrpc-gateway/internal/handler"
	"github.com/avhq/jsonrpc-gateway/internal/metrics"
)

func setupRouter(h *handler.Handler, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/rpc", h.RPC)
	mux.HandleFunc("/", h.RPC)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/status", h.Status)
	mux.HandleFunc("/metrics", metricsHandler(collector))

	return mux
}

func metricsHandler(collector *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(collector.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
