// Package notify publishes migration completion events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"example.com/sakila-migration/internal/config"
)

// flushTimeout bounds how long Publish waits for the server to acknowledge the flush.
const flushTimeout = 5 * time.Second

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Drain() error
}

// Publisher sends JSON events to a fixed subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// Connect dials the NATS server in cfg.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("sakila-migration"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	p := NewPublisher(nc, cfg.Subject, logger)
	p.logger.Info("connected to NATS", "url", cfg.URL, "subject", cfg.Subject)
	return p, nil
}

// Publish marshals event as JSON and publishes it. ctx is honoured only
// before the message is handed to the connection.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("failed to flush publish to %s: %w", p.subject, err)
	}
	p.logger.Debug("published event", "subject", p.subject, "bytes", len(payload))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
