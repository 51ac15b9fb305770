package queue

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// retryDelay is how long a failed message waits in the retry queue.
const retryDelay = 10 * time.Second

// Publisher is the subset of *amqp091.Channel used to publish messages.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// URLFromEnv builds the broker url from the RABBITMQ_* variables.
func URLFromEnv() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(util.GetEnvString("RABBITMQ_USER", "guest"), util.GetEnvString("RABBITMQ_PASSWORD", "guest")),
		Host:   fmt.Sprintf("%s:%s", util.GetEnvString("RABBITMQ_HOST", "localhost"), util.GetEnvString("RABBITMQ_PORT", "5672")),
		Path:   "/",
	}
	return u.String()
}

// Init connects to the broker, retrying while it starts up.
func Init(ctx context.Context, connURL string) (*amqp091.Connection, error) {
	return util.RetryIf(ctx, util.RetryParams{MaxTries: 5, Backoff: time.Second}, func(ctx context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(connURL)
		if err != nil {
			logger.Warn("[Queue] Failed to connect to RabbitMQ", "err", err)
		}
		return conn, err
	})
}

// SetupQueues declares each queue together with its _dlq and _retry
// companions. Messages in _retry return to the main queue after retryDelay.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		if _, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryDelay / time.Millisecond),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		); err != nil {
			return fmt.Errorf("declare %s: %w", retryName, err)
		}
	}

	return nil
}

// PublishFIFO publishes a persistent message to a queue on the default
// exchange.
func PublishFIFO(ctx context.Context, p Publisher, queueName string, data []byte) error {
	return p.PublishWithContext(ctx, "", queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}
