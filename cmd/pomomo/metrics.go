package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benjamonnguyen/pomomo-tui"
)

var (
	sessionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pomomo",
		Name:      "sessions_total",
		Help:      "Number of sessions ended, by kind and outcome.",
	}, []string{"kind", "outcome"})

	focusMinutesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pomomo",
		Name:      "focus_minutes_total",
		Help:      "Minutes of completed work sessions.",
	})

	cyclesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pomomo",
		Name:      "cycles_total",
		Help:      "Number of cycles closed, by status.",
	}, []string{"status"})

	timerRunningGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pomomo",
		Name:      "timer_running",
		Help:      "1 while the countdown is running.",
	})

	persistErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pomomo",
		Name:      "persist_errors_total",
		Help:      "Number of failed history writes.",
	})
)

func init() {
	prometheus.MustRegister(sessionsCounter, focusMinutesCounter, cyclesCounter, timerRunningGauge, persistErrorCounter)
}

func recordSessionEnded(r pomomo.SessionRecord) {
	sessionsCounter.WithLabelValues(r.Kind.String(), strings.ToLower(r.Outcome())).Inc()
	if r.Completed && r.Kind == pomomo.WorkSession {
		focusMinutesCounter.Add(float64(r.DurationMinutes))
	}
}

func recordCycleClosed(status pomomo.CycleStatus) {
	cyclesCounter.WithLabelValues(status.String()).Inc()
}

func recordTimerState(state pomomo.TimerState) {
	if state == pomomo.TimerRunning {
		timerRunningGauge.Set(1)
	} else {
		timerRunningGauge.Set(0)
	}
}

// startMetricsServer serves /metrics on addr until Shutdown. A nil server is
// returned when addr is empty.
func startMetricsServer(addr string, logger *log.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "err", err)
		}
	}()
	return srv
}

func stopMetricsServer(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
