package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/avhq/jsonrpc-gateway/internal/dispatcher"
	"github.com/avhq/jsonrpc-gateway/internal/gateway"
	"github.com/avhq/jsonrpc-gateway/internal/jsonrpc"
	"github.com/avhq/jsonrpc-gateway/internal/node"
)

// Handler adapts gateway.Gateway to net/http.
type Handler struct {
	logger     *slog.Logger
	gateway    *gateway.Gateway
	dispatcher *dispatcher.Dispatcher
}

// New creates a Handler.
func New(logger *slog.Logger, gw *gateway.Gateway, disp *dispatcher.Dispatcher) *Handler {
	return &Handler{logger: logger, gateway: gw, dispatcher: disp}
}

// RPC serves POST /rpc (and, where a deployment aliases / to it, POST /).
func (h *Handler) RPC(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(r)
	if err != nil {
		h.writeJSONRPCError(w, http.StatusBadRequest, -32600, "malformed request body")
		return
	}

	h.logger.Info("received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	resp, err := h.gateway.Handle(r.Context(), body)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(resp)

	case err == jsonrpc.ErrMalformedRequest:
		h.writeJSONRPCError(w, http.StatusBadRequest, -32600, "invalid JSON-RPC request")

	case err == dispatcher.ErrNoHealthyNode:
		h.logger.Warn("no healthy upstream available", slog.String("client", clientIP))
		http.Error(w, "no healthy upstream available", http.StatusServiceUnavailable)

	default:
		reason := ""
		if ce, ok := err.(*node.CallError); ok {
			reason = string(ce.Reason)
		}
		h.logger.Warn("upstream call failed",
			slog.String("client", clientIP),
			slog.String("reason", reason),
			slog.Any("err", err))
		http.Error(w, "upstream call failed", http.StatusBadGateway)
	}
}

// Health serves GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type nodeStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type statusResponse struct {
	Nodes []nodeStatus `json:"nodes"`
}

// Status serves GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	nodes := h.dispatcher.Nodes()
	resp := statusResponse{Nodes: make([]nodeStatus, 0, len(nodes))}
	for _, n := range nodes {
		snap := n.Snapshot()
		status := "UNHEALTHY"
		if snap.Healthy {
			status = "HEALTHY"
		}
		resp.Nodes = append(resp.Nodes, nodeStatus{Name: snap.Name, Status: status})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONRPCError(w http.ResponseWriter, httpStatus, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": nil,
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, http.ErrBodyNotAllowed
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
