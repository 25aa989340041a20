// Package mq fans out users.changed events between server replicas so every
// replica can drop its cached listing pages after a mutation.
package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jjudge-oj/userdir/config"
)

const (
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
// Every subscriber receives every message published on a channel.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// ErrNoDialer is returned by Reconnect on an MQ built around a fixed backend.
var ErrNoDialer = errors.New("mq: backend cannot be redialed")

// Dialer opens a fresh backend connection.
type Dialer func(ctx context.Context) (Backend, error)

// MQ wraps a backend with a stable API.
type MQ struct {
	mu      sync.RWMutex
	backend Backend
	dial    Dialer
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// NewWithDialer dials the first backend and keeps dial for Reconnect.
func NewWithDialer(ctx context.Context, dial Dialer) (*MQ, error) {
	backend, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return &MQ{backend: backend, dial: dial}, nil
}

// Open connects to the broker named in cfg. It returns (nil, nil) when no
// backend is configured.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var dial Dialer
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case BackendRabbitMQ:
		dial = func(context.Context) (Backend, error) {
			return NewRabbitMQClient(cfg.RabbitMQ)
		}
	case BackendPubSub:
		dial = func(ctx context.Context) (Backend, error) {
			return NewPubSubClient(ctx, cfg.PubSub)
		}
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
	q, err := NewWithDialer(ctx, dial)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.Backend, err)
	}
	return q, nil
}

func (m *MQ) current() Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.current().Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.current().Subscribe(ctx, channel, handler)
}

// Reconnect replaces the backend with a freshly dialed one and closes the old
// connection. On dial failure the old backend stays in place.
func (m *MQ) Reconnect(ctx context.Context) error {
	if m.dial == nil {
		return ErrNoDialer
	}
	backend, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	m.mu.Lock()
	old := m.backend
	m.backend = backend
	m.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.current().Close()
}
