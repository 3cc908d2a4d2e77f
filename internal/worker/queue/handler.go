package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/models"
	"github.com/rlsguard/stats-service/internal/service"
)

// ErrMalformedMessage marks deliveries that can never succeed.
var ErrMalformedMessage = errors.New("malformed statistics request")

type MessageHandler interface {
	HandleStatisticsRequest(ctx context.Context, msg RabbitMQMessage) error
}

type messageHandler struct {
	statistics service.StatisticsService
	logger     zerolog.Logger
}

func NewMessageHandler(statistics service.StatisticsService, logger zerolog.Logger) MessageHandler {
	return &messageHandler{
		statistics: statistics,
		logger:     logger,
	}
}

func (h *messageHandler) HandleStatisticsRequest(ctx context.Context, msg RabbitMQMessage) error {
	event, err := ParseStatisticsRequest(msg.Body)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("classroom_id", event.ClassroomID).
		Str("school_id", event.SchoolID).
		Bool("redelivered", msg.Redelivered).
		Msg("Handling statistics request")

	result, err := h.statistics.Calculate(ctx, models.CalculateStatisticsRequest{
		ClassroomID: event.ClassroomID,
		SchoolID:    event.SchoolID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return err
	}

	if result.Statistics == nil {
		h.logger.Info().Str("classroom_id", event.ClassroomID).Msg("No progress data, nothing recorded")
	}

	return nil
}

func ParseStatisticsRequest(body []byte) (models.StatisticsRequestedEvent, error) {
	var event models.StatisticsRequestedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	event.ClassroomID = strings.TrimSpace(event.ClassroomID)
	event.SchoolID = strings.TrimSpace(event.SchoolID)

	if event.ClassroomID == "" || event.SchoolID == "" {
		return event, fmt.Errorf("%w: classroom_id and school_id are required", ErrMalformedMessage)
	}

	return event, nil
}
