package connection

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the sink.
type Handler struct {
	cfg      ClientConfig
	sink     Sink
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the upgrade handler. allowedOrigins is a list of exact
// origins or "*."-prefixed suffix patterns; empty allows every origin.
func NewHandler(cfg ClientConfig, sink Sink, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeHTTP upgrades the request and starts the connection pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.cfg, h.sink, h.logger)
	h.logger.Debug("connection accepted", "remote", r.RemoteAddr, "peer_id", client.ID())
	client.Start()
}

// originChecker builds the CheckOrigin function for the upgrader.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
			// "*.example.com" style suffix patterns.
			if suffix, ok := strings.CutPrefix(a, "*"); ok && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
		return false
	}
}
