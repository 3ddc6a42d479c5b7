// Package mq publishes contest updates and scoreboard diffs to a message
// broker.
package mq

import (
	"context"
	"errors"

	"github.com/jjudge-oj/livefeed/config"
)

// ErrNoBackend is returned by New when MQ_BACKEND is none.
var ErrNoBackend = errors.New("message queue is not configured")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// New connects to the configured broker.
func New(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendRabbitMQ:
		return NewRabbitMQClient(cfg.RabbitMQ)
	case config.BackendPubSub:
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, ErrNoBackend
	}
}
