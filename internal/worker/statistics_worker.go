package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/worker/queue"
)

type StatisticsWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	MaxWorkers     int `json:"max_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	RejectedJobs   int `json:"rejected_jobs"`
	QueueLength    int `json:"queue_length"`
	// BrokerBacklog is the number of ready messages still waiting in the
	// broker queue, -1 when the broker could not be asked.
	BrokerBacklog int `json:"broker_backlog"`
}

type statisticsWorker struct {
	workerPool    *WorkerPool
	queueConsumer queue.RabbitMQConsumer
	handler       queue.MessageHandler
	timeout       time.Duration
	logger        zerolog.Logger
	stats         WorkerStats
	statsMutex    sync.RWMutex
	cancel        context.CancelFunc
	done          chan struct{}
	startTime     time.Time
}

// NewStatisticsWorker feeds consumed recalculation requests into the pool.
// timeout bounds a single calculation; zero means no bound.
func NewStatisticsWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	handler queue.MessageHandler,
	timeout time.Duration,
	logger zerolog.Logger,
) StatisticsWorker {
	return &statisticsWorker{
		workerPool:    workerPool,
		queueConsumer: queueConsumer,
		handler:       handler,
		timeout:       timeout,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

func (w *statisticsWorker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting statistics worker...")
	w.startTime = time.Now()

	// Tasks already in the pool finish even after the consumer is cancelled.
	if err := w.workerPool.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	msgs, err := w.queueConsumer.Consume(consumeCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}
	w.cancel = cancel

	go w.processMessages(consumeCtx, msgs)

	w.logger.Info().Msg("Statistics worker started")
	return nil
}

func (w *statisticsWorker) Stop() error {
	w.logger.Info().Msg("Stopping statistics worker...")

	if w.cancel != nil {
		if err := w.queueConsumer.Close(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to close queue consumer")
		}
		w.cancel()
		<-w.done
	}

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	stats := w.GetStats()
	w.logger.Info().
		Int("total_processed", stats.TotalProcessed).
		Int("failed_jobs", stats.FailedJobs).
		Int("rejected_jobs", stats.RejectedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Statistics worker stopped")

	return nil
}

func (w *statisticsWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			err := w.workerPool.Submit(func(taskCtx context.Context) {
				w.processMessage(taskCtx, msg)
			})
			if err != nil {
				// Never started, so handing it back is not a retry.
				w.logger.Warn().Err(err).Msg("Failed to submit statistics request")
				if nackErr := msg.Nack(false, true); nackErr != nil {
					w.logger.Error().Err(nackErr).Msg("Failed to nack message")
				}
			}
		}
	}
}

func (w *statisticsWorker) processMessage(ctx context.Context, msg queue.RabbitMQMessage) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	err := w.handler.HandleStatisticsRequest(ctx, msg)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}

		w.statsMutex.Lock()
		w.stats.TotalProcessed++
		w.statsMutex.Unlock()
		return
	}

	w.statsMutex.Lock()
	if errors.Is(err, queue.ErrMalformedMessage) {
		w.stats.RejectedJobs++
	} else {
		w.stats.FailedJobs++
	}
	w.statsMutex.Unlock()

	w.logger.Error().Err(err).Msg("Failed to process statistics request")

	// No automatic retries: failed requests are dropped, not requeued.
	if nackErr := msg.Nack(false, false); nackErr != nil {
		w.logger.Error().Err(nackErr).Msg("Failed to nack message")
	}
}

func (w *statisticsWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	stats := w.stats
	w.statsMutex.RUnlock()

	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()
	stats.MaxWorkers = w.workerPool.MaxWorkers()
	stats.QueueLength = w.workerPool.GetQueueLength()

	backlog, err := w.queueConsumer.GetQueueLength()
	if err != nil {
		w.logger.Debug().Err(err).Msg("Failed to read broker queue length")
		backlog = -1
	}
	stats.BrokerBacklog = backlog

	return stats
}
