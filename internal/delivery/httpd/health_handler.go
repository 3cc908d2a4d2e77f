package httpd

import (
	"context"
	"net/http"
	"time"

	"github.com/rlsguard/stats-service/internal/models"
)

const (
	serviceName    = "stats-service"
	serviceVersion = "1.0.0"
	readyTimeout   = 3 * time.Second
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.HealthCheckResponse{
		Status:    "healthy",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
	})
}

// ReadinessCheck gates on the data store only. The archive is reported but a
// failing archive never makes the service unready.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := models.ReadinessResponse{
		Status:    "ready",
		Database:  models.DependencyState{Name: h.store.Driver(), Healthy: true},
		Archive:   models.DependencyState{Name: "none", Healthy: true},
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "not ready"
		resp.Database.Healthy = false
		resp.Database.Error = err.Error()
		status = http.StatusServiceUnavailable
	}

	if h.archive != nil {
		resp.Archive.Name = h.archive.Name()
		if err := h.archive.Ping(ctx); err != nil {
			resp.Archive.Healthy = false
			resp.Archive.Error = err.Error()
			h.logger.Warn().Err(err).Str("archive", h.archive.Name()).Msg("Archive is unreachable")
		}
	}

	if h.workers != nil {
		stats := h.workers.GetStats()
		resp.ActiveWorkers = stats.ActiveWorkers
		resp.QueueLength = stats.QueueLength
		resp.BrokerBacklog = stats.BrokerBacklog
	}

	h.writeJSON(w, status, resp)
}
