package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EngineEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "engine_events_total",
		Help:      "Total engine events dispatched by event name.",
	}, []string{"event"})

	EngineCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "engine_commands_total",
		Help:      "Total engine commands issued by verb.",
	}, []string{"command"})

	PropertyWriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "property_write_errors_total",
		Help:      "Total engine property writes that failed.",
	})

	IgnoredEndFileTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "ignored_end_file_total",
		Help:      "Total end-file events ignored because a load was starting.",
	})

	GestureSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "gesture_sessions_total",
		Help:      "Total finished touch sequences by classified axis.",
	}, []string{"axis"})

	SeekCommitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpvbridge",
		Name:      "seek_commits_total",
		Help:      "Total seeks committed at the end of a horizontal drag.",
	})

	IPCRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mpvbridge",
		Name:      "ipc_request_duration_seconds",
		Help:      "Round trip time of mpv IPC requests in seconds.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		EngineEventsTotal,
		EngineCommandsTotal,
		PropertyWriteErrorsTotal,
		IgnoredEndFileTotal,
		GestureSessionsTotal,
		SeekCommitsTotal,
		IPCRequestDuration,
	)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
