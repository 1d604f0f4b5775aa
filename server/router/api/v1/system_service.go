package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

// Healthz pings the database.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		slog.Warn("health check failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type metricsResponse struct {
	Version     string  `json:"version"`
	Mode        string  `json:"mode"`
	SuccessRate float64 `json:"success_rate"`
	Metrics     any     `json:"metrics"`
}

// GetMetrics returns the in-process counters.
// GET /api/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, metricsResponse{
		Version:     s.Profile.Version,
		Mode:        s.Profile.Mode,
		SuccessRate: snapshot.SuccessRate(),
		Metrics:     snapshot,
	})
}

// ListTools returns the read and write tool of every registered module.
// GET /api/tools
func (s *APIV1Service) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Agents.Tools())
}
