package queue

import (
	"context"
	"errors"
	"time"

	"github.com/cicdguard/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// maxRetries is the number of redeliveries before a message is
// dead-lettered.
const maxRetries = 10

// Outcome names what happened to a delivery.
type Outcome string

const (
	OutcomeProcessed    Outcome = "processed"
	OutcomeRetried      Outcome = "retried"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeRequeued     Outcome = "requeued"
)

// Processor handles the body of a delivery.
type Processor interface {
	Process(ctx context.Context, body []byte) error
}

// OutcomeCounter counts deliveries per outcome. The metrics CounterVec
// satisfies it through a small adapter.
type OutcomeCounter interface {
	Inc(outcome Outcome)
}

// Consumer consumes a single queue one message at a time.
type Consumer struct {
	queueName string
	channel   *amqp091.Channel
	publisher Publisher
	processor Processor
	counter   OutcomeCounter
}

// NewConsumerParams configures a Consumer. Counter may be nil.
type NewConsumerParams struct {
	QueueName string
	Channel   *amqp091.Channel
	Processor Processor
	Counter   OutcomeCounter
}

// NewConsumer creates a Consumer.
func NewConsumer(params NewConsumerParams) *Consumer {
	return &Consumer{
		queueName: params.QueueName,
		channel:   params.Channel,
		publisher: params.Channel,
		processor: params.Processor,
		counter:   params.Counter,
	}
}

// Run consumes until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return err
	}
	msgs, err := c.channel.Consume(
		c.queueName,
		c.queueName+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Listening for messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", c.queueName)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", c.queueName)
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()
	err := c.processor.Process(ctx, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error("[Queue] Failed to ack message", "err", ackErr)
		}
		c.count(OutcomeProcessed)
		logger.Debug("[Queue] Message processed", "queue", c.queueName, "duration", time.Since(start))
		return
	}

	logger.Error("[Queue] Error processing message", "queue", c.queueName, "err", err)
	c.count(c.handleProcessingError(ctx, msg, err))
}

// handleProcessingError sends the message to the retry queue, or to the
// dead-letter queue once it was retried maxRetries times or can never
// succeed.
func (c *Consumer) handleProcessingError(ctx context.Context, msg amqp091.Delivery, cause error) Outcome {
	retries := retryCount(msg.Headers)

	var permanent *PermanentError
	if retries >= maxRetries || errors.As(cause, &permanent) {
		dlqName := c.queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		err := c.publisher.PublishWithContext(ctx, "", dlqName, false, false, amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     msg.Headers,
		})
		if err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			_ = msg.Nack(false, true)
			return OutcomeRequeued
		}
		_ = msg.Ack(false)
		return OutcomeDeadLettered
	}

	retryName := c.queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)

	err := c.publisher.PublishWithContext(ctx, "", retryName, false, false, amqp091.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     headers,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		_ = msg.Nack(false, true)
		return OutcomeRequeued
	}
	_ = msg.Ack(false)
	return OutcomeRetried
}

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (c *Consumer) count(o Outcome) {
	if c.counter != nil {
		c.counter.Inc(o)
	}
}

// CounterFunc adapts a function to an OutcomeCounter.
type CounterFunc func(Outcome)

// Inc calls f(o).
func (f CounterFunc) Inc(o Outcome) { f(o) }
