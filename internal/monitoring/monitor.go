// Package monitoring samples broker state into metrics.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
)

// Queue names reported on the depth gauge
const (
	ConversionQueue = "conversions"
	DeadLetterQueue = "dead_letter"
)

// QueueProvider defines the interface for queue metrics
type QueueProvider interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

// Monitor periodically records queue depths
type Monitor struct {
	queues QueueProvider
	logger *logging.Logger
}

// NewMonitor creates a new monitoring service
func NewMonitor(queues QueueProvider, logger *logging.Logger) *Monitor {
	return &Monitor{queues: queues, logger: logger}
}

// Run samples every interval until ctx is done
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Collect(); err != nil {
			m.logger.WarnWithErr("Failed to update queue metrics", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Collect samples both queues once
func (m *Monitor) Collect() error {
	depth, err := m.queues.GetQueueDepth()
	if err != nil {
		return fmt.Errorf("failed to get queue depth: %w", err)
	}
	metrics.RecordQueueDepth(ConversionQueue, depth)

	dlqDepth, err := m.queues.GetDLQDepth()
	if err != nil {
		return fmt.Errorf("failed to get DLQ depth: %w", err)
	}
	metrics.RecordQueueDepth(DeadLetterQueue, dlqDepth)

	if dlqDepth > 0 {
		m.logger.Warnf("%d conversion jobs are waiting in the dead letter queue", dlqDepth)
	}
	return nil
}
