package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal/interface/api/rest/dto/file"
)

const (
	// events waiting for the publisher worker; more are dropped
	bufferSize     = 128
	publishTimeout = 5 * time.Second
)

// RoutingKeys are the http methods of the actions that emit events.
var RoutingKeys = []string{
	http.MethodPost,
	http.MethodDelete,
}

// Event describes one committed upload or delete.
type Event struct {
	Id      uuid.UUID `json:"event_id"`
	TS      time.Time `json:"time_stamp"`
	Method  string    `json:"event_action"`
	UserID  string    `json:"user_id"`
	Payload file.File `json:"file_payload"`
}

type RabbitMQ struct {
	cfg      config.MQ
	log      *zap.Logger
	conn     *amqp091.Connection
	pubCh    *amqp091.Channel
	in       chan Event
	mCounter *prometheus.CounterVec
}

func New(cfg config.MQ, logger *zap.Logger, mCounter *prometheus.CounterVec) *RabbitMQ {
	return &RabbitMQ{
		cfg:      cfg,
		log:      logger.Named("mq"),
		in:       make(chan Event, bufferSize),
		mCounter: mCounter,
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	conn, err := amqp091.DialConfig(dsn, amqp091.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp091.Table{"connection_name": "filevault-publisher"},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	r.conn, r.pubCh = conn, ch
	r.log.Info("rabbitmq connected successfully")

	return nil
}

// Init declares a durable exchange and queue and binds one key per action.
func (r *RabbitMQ) Init() error {
	err := r.pubCh.ExchangeDeclare(r.cfg.Exchange, r.cfg.ExchangeType, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("exchange declare %s: %w", r.cfg.Exchange, err)
	}

	q, err := r.pubCh.QueueDeclare(r.cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare %s: %w", r.cfg.QueueName, err)
	}

	for _, rk := range RoutingKeys {
		if err = r.pubCh.QueueBind(q.Name, rk, r.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	return nil
}

// Publish never blocks a request: when the buffer is full the event is dropped.
func (r *RabbitMQ) Publish(e Event) bool {
	select {
	case r.in <- e:
		return true
	default:
		r.count("events_dropped_total")
		r.log.Warn("buffer full, event dropped",
			zap.Stringer("event_id", e.Id),
			zap.String("event_action", e.Method),
		)
		return false
	}
}

// PublisherWorker drains the buffer until ctx is done.
func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")
	defer r.log.Info("publisher worker gracefully stopped")

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				r.count("events_failed_total")
				r.log.Error("publish error", zap.Stringer("event_id", e.Id), zap.Error(err))
			}
		case <-ctx.Done():
			if pending := len(r.in); pending > 0 {
				r.log.Warn("stopping with unpublished events", zap.Int("pending", pending))
			}
			_ = r.pubCh.Close()
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err = r.pubCh.PublishWithContext(ctx, r.cfg.Exchange, e.Method, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Method,
		Body:         body,
	}); err != nil {
		return err
	}

	r.count("events_published_total")

	return nil
}

func (r *RabbitMQ) count(result string) {
	if r.mCounter != nil {
		r.mCounter.WithLabelValues(result).Inc()
	}
}

func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(Event) bool { return false }
