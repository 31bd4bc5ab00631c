package ports

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"file-vault-api/internal/infrastructure/mq"
)

type EventPublisher interface {
	// Publish enqueues e without blocking; false means it was dropped.
	Publish(e mq.Event) bool
}

type RabbitMQ interface {
	EventPublisher
	Connect(ctx context.Context, dsn string) error
	Init() error
	PublisherWorker(ctx context.Context)
	GetConn() *amqp091.Connection
}
