package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal/infrastructure/mq"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

type (
	Consumer struct {
		cfg        config.MQ
		log        *zap.Logger
		conn       *amqp091.Connection
		chConsume  *amqp091.Channel
		chDelivery <-chan amqp091.Delivery
		mCounter   *prometheus.CounterVec
	}
	// fileEvent is the subset of the published event the consumer reads.
	fileEvent struct {
		ID      string `json:"event_id"`
		UserID  string `json:"user_id"`
		Payload struct {
			ID          string `json:"id"`
			FileHash    string `json:"file_hash"`
			Size        int64  `json:"size"`
			IsReference bool   `json:"is_reference"`
		} `json:"file_payload"`
	}
)

func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection, mCounter *prometheus.CounterVec) *Consumer {
	return &Consumer{
		cfg:      cfg,
		log:      logger,
		conn:     conn,
		mCounter: mCounter,
	}
}

// Connect opens a channel on the shared connection, dialing dsn only when
// there is none yet.
func (c *Consumer) Connect(dsn string) error {
	var err error
	if c.conn == nil || c.conn.IsClosed() {
		if c.conn, err = amqp091.Dial(dsn); err != nil {
			c.conn = nil
			return fmt.Errorf("amqp dial: %w", err)
		}
	}
	c.chConsume, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range mq.RoutingKeys {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var err error
	c.chDelivery, err = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		case <-ctx.Done():
			c.chConsume.Close()
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	action, ok := actionFor(msg.RoutingKey)
	if !ok {
		return fmt.Errorf("unknown routing key %q", msg.RoutingKey)
	}

	var e fileEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode %s event: %w", action, err)
	}

	if c.mCounter != nil {
		c.mCounter.WithLabelValues("events_consumed_total").Inc()
	}
	c.log.Info("file event",
		zap.String("action", action),
		zap.String("event_id", e.ID),
		zap.String("user_id", e.UserID),
		zap.String("file_id", e.Payload.ID),
		zap.String("file_hash", e.Payload.FileHash),
		zap.Int64("size", e.Payload.Size),
		zap.Bool("is_reference", e.Payload.IsReference),
	)

	return nil
}

func actionFor(routingKey string) (string, bool) {
	switch routingKey {
	case http.MethodPost:
		return "FileUploaded", true
	case http.MethodDelete:
		return "FileDeleted", true
	}
	return "", false
}
