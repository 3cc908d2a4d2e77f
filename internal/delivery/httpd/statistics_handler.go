package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rlsguard/stats-service/internal/models"
	"github.com/rlsguard/stats-service/internal/service"
	"github.com/rlsguard/stats-service/pkg/utils"
)

const (
	msgCalculated = "Class statistics calculated successfully"
	msgNoData     = "No progress data found for this classroom"
)

// Preflight answers CORS preflight requests before any business logic.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	if header.Get("Access-Control-Allow-Origin") == "" {
		header.Set("Access-Control-Allow-Origin", "*")
	}
	if header.Get("Access-Control-Allow-Headers") == "" {
		header.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) CalculateClassStatistics(w http.ResponseWriter, r *http.Request) {
	var req models.CalculateStatisticsRequest
	// An empty body is treated as a request with no ids.
	if err := utils.ReadJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug().Err(err).Msg("Invalid calculate request body")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.statistics.Calculate(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, service.ErrInvalidRequest.Error())
			return
		}

		h.logger.Error().
			Err(err).
			Str("classroom_id", req.ClassroomID).
			Msg("Failed to calculate class statistics")
		h.writeInternalError(w, err)
		return
	}

	if result.Statistics == nil {
		h.writeJSON(w, http.StatusOK, models.NoDataResponse{Message: msgNoData})
		return
	}

	h.writeJSON(w, http.StatusOK, models.CalculateStatisticsResponse{
		Success:       true,
		Statistics:    result.Statistics,
		Message:       msgCalculated,
		ArchiveStatus: result.Archive.Status,
	})
}

func (h *Handler) GetLatestStatistics(w http.ResponseWriter, r *http.Request) {
	classroomID := chi.URLParam(r, "classroom_id")

	stats, err := h.statistics.GetLatest(r.Context(), classroomID)
	if err != nil {
		h.handleQueryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetStatisticsHistory(w http.ResponseWriter, r *http.Request) {
	classroomID := chi.URLParam(r, "classroom_id")
	limit := getIntQueryParam(r, "limit", 0)
	offset := getIntQueryParam(r, "offset", 0)

	history, err := h.statistics.GetHistory(r.Context(), classroomID, limit, offset)
	if err != nil {
		h.handleQueryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) handleQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStatisticsNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Failed to query class statistics")
		h.writeInternalError(w, err)
	}
}
