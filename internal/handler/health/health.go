package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{checks: checks, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type Component struct {
	Status string `json:"status"`
}

// Report is the body of GET /healthz. Status is "ok" only when every
// component is reachable.
type Report struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Run executes every check concurrently and collects the outcome.
func (h *Handler) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		report = Report{Status: "ok", Components: make(map[string]Component, len(h.checks))}
	)

	var g errgroup.Group
	for name, c := range h.checks {
		name, c := name, c
		g.Go(func() error {
			status := "ok"
			if err := c.Check(ctx); err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				status = "error"
			}

			mu.Lock()
			defer mu.Unlock()
			report.Components[name] = Component{Status: status}
			if status != "ok" {
				report.Status = "degraded"
			}
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	report := h.Run(r.Context())

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("encoding health report", "error", err)
	}
}
