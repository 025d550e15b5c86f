package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
)

const (
	workerGroup  = "workers"
	drainTimeout = 5 * time.Second
)

// Queue carries query-analytics records from the API process to the worker.
// Delivery is at-most-once by design: losing a record is acceptable,
// blocking a customer response is not.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

var _ ports.AnalyticsPublisher = (*Queue)(nil)

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func (o Options) connectOptions() []nats.Option {
	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := o.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := o.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := o.RetryOnFailedConnect == nil || *o.RetryOnFailedConnect

	return []nats.Option{
		nats.Name("store-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	conn, err := nats.Connect(url, options.connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishQueryAnalytics(ctx context.Context, record domain.QueryAnalytics) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal analytics record: %w", err)
	}
	return markTemporary(q.publish(ctx, payload))
}

func (q *Queue) publish(ctx context.Context, payload []byte) error {
	send := func(context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}
	if q.executor == nil {
		return send(ctx)
	}
	return q.executor.Execute(ctx, "nats.publish", send, classifyPublishError)
}

// SubscribeQueryAnalytics consumes records in the workers queue group until
// ctx is cancelled, then drains so in-flight records finish persisting.
func (q *Queue) SubscribeQueryAnalytics(ctx context.Context, handler func(context.Context, domain.QueryAnalytics) error) error {
	deliver := func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		var record domain.QueryAnalytics
		if err := json.Unmarshal(msg.Data, &record); err != nil {
			slog.Error("analytics_decode_failed", "error", err)
			return
		}
		if err := handler(ctx, record); err != nil {
			slog.Error("analytics_handler_failed", "record_id", record.ID, "error", err)
		}
	}

	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, deliver)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(drainTimeout); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
