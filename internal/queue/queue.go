package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

const (
	ConversionQueueName = "hls_conversions"
	ExchangeName        = "streamingvideo"
)

// JobHandler processes one conversion job. A returned error dead-letters
// the job; it is never requeued automatically.
type JobHandler func(ctx context.Context, job models.ConversionJob) error

// Queue provides message queue operations
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logging.Logger
}

// New creates a new queue client and declares the conversion and
// dead letter topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &Queue{conn: conn, channel: channel, logger: logger}
	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	// Declare exchange
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := q.setupDeadLetterQueue(); err != nil {
		return err
	}

	// Rejected jobs are routed to the dead letter exchange by the broker
	_, err = q.channel.QueueDeclare(
		ConversionQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		conversionQueueArgs(),
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = q.channel.QueueBind(
		ConversionQueueName,
		ConversionQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

func conversionQueueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchangeName,
		"x-dead-letter-routing-key": DeadLetterQueueName,
	}
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func encodeJob(job models.ConversionJob) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal job: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    job.SubmittedAt,
		MessageId:    fmt.Sprintf("conversion-%d-%d", job.AssetID, job.SubmittedAt.UnixNano()),
	}, nil
}

func decodeJob(body []byte) (models.ConversionJob, error) {
	var job models.ConversionJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.AssetID <= 0 {
		return job, fmt.Errorf("job has invalid asset id %d", job.AssetID)
	}
	return job, nil
}

// SubmitConversion publishes a conversion job for the asset
func (q *Queue) SubmitConversion(ctx context.Context, assetID int64) error {
	msg, err := encodeJob(models.ConversionJob{AssetID: assetID, SubmittedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		ConversionQueueName,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	metrics.RecordConversionSubmitted()
	return nil
}

// ConsumeConversions starts consuming conversion jobs. Each job is handled
// one at a time per consumer.
func (q *Queue) ConsumeConversions(ctx context.Context, handler JobHandler) error {
	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		ConversionQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
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
				q.handle(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (q *Queue) handle(ctx context.Context, msg amqp.Delivery, handler JobHandler) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		q.logger.WarnWithErr("Dropping malformed conversion job", err)
		msg.Nack(false, false)
		metrics.RecordDeadLettered()
		return
	}

	if err := handler(ctx, job); err != nil {
		if ctx.Err() != nil {
			q.logger.WithAssetID(job.AssetID).WarnWithErr("Conversion interrupted by shutdown, requeueing", err)
			msg.Nack(false, true)
			return
		}
		q.logger.WithAssetID(job.AssetID).ErrorWithErr("Conversion job failed, moving to dead letter queue", err)
		msg.Nack(false, false)
		metrics.RecordDeadLettered()
		return
	}

	msg.Ack(false)
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(ConversionQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}
