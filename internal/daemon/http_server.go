package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmolina/fichabot/internal/logfields"
)

// livenessServer exposes the plain OK endpoint for external supervisors,
// plus Prometheus metrics. It is independent of all check-in state.
type livenessServer struct {
	server *http.Server
}

func newLivenessServer(port int, metrics *Metrics) *livenessServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleLiveness)
	mux.HandleFunc("/healthz", handleLiveness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	return &livenessServer{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// start serves in the background; listen errors are logged, not fatal,
// matching the best-effort role of the endpoint.
func (l *livenessServer) start() {
	go func() {
		slog.Info("Liveness endpoint listening", slog.String("addr", l.server.Addr))
		if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Liveness server failed", logfields.Error(err))
		}
	}()
}

func (l *livenessServer) stop(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}
