package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsCreated counts create requests that produced a session.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "sessions_created_total",
		Help:      "Number of sessions created.",
	})

	// SessionsJoined counts successful second-player joins.
	SessionsJoined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "sessions_joined_total",
		Help:      "Number of sessions that reached two players.",
	})

	// SessionsFinished counts terminal outcomes by result.
	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "sessions_finished_total",
		Help:      "Number of sessions that reached a terminal outcome.",
	}, []string{"outcome"})

	// SessionsDestroyed counts registry removals by trigger.
	SessionsDestroyed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "sessions_destroyed_total",
		Help:      "Number of sessions destroyed.",
	}, []string{"reason"})

	// MovesApplied counts accepted moves.
	MovesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "moves_applied_total",
		Help:      "Number of accepted moves.",
	})

	// MessagesRejected counts requester-only error replies by reason.
	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tictac",
		Name:      "messages_rejected_total",
		Help:      "Number of rejected client messages.",
	}, []string{"reason"})

	// ActiveSessions tracks live sessions in the registry.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tictac",
		Name:      "active_sessions",
		Help:      "Number of live sessions.",
	})

	// ConnectedPeers tracks open WebSocket connections.
	ConnectedPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tictac",
		Name:      "connected_peers",
		Help:      "Number of open WebSocket connections.",
	})
)

// Serve runs the metrics endpoint until ctx is canceled.
func Serve(ctx context.Context, port int, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "port", port, "path", path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
