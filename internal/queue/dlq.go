package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

const (
	DeadLetterQueueName    = "hls_conversions_dlq"
	DeadLetterExchangeName = "streamingvideo_dlq"
)

// setupDeadLetterQueue sets up the dead letter queue infrastructure
func (q *Queue) setupDeadLetterQueue() error {
	// Declare dead letter exchange
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	// Declare dead letter queue
	_, err = q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Bind DLQ to exchange
	err = q.channel.QueueBind(
		DeadLetterQueueName,
		DeadLetterQueueName,
		DeadLetterExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	q.logger.Debug("Dead letter queue infrastructure set up")
	return nil
}

// ConsumeDLQ consumes dead-lettered jobs for manual inspection. The handler
// receives the broker's rejection reason.
func (q *Queue) ConsumeDLQ(ctx context.Context, handler func(job models.ConversionJob, reason string) error) error {
	msgs, err := q.channel.Consume(
		DeadLetterQueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register DLQ consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				job, err := decodeJob(msg.Body)
				if err != nil {
					// nowhere left to route it
					msg.Ack(false)
					continue
				}

				if err := handler(job, deathReason(msg.Headers)); err != nil {
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// deathReason extracts the first x-death reason set by the broker
func deathReason(headers amqp.Table) string {
	deaths, ok := headers["x-death"].([]interface{})
	if !ok || len(deaths) == 0 {
		return ""
	}
	death, ok := deaths[0].(amqp.Table)
	if !ok {
		return ""
	}
	reason, _ := death["reason"].(string)
	return reason
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}
