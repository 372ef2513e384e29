package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"creditflow/internal/credit/models"
)

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = 30 * time.Second
	defaultPingInterval  = 90 * time.Second
)

// PostgresSource listens on the channel fed by the credit_requests
// trigger. lib/pq reconnects on its own; every (re)connect signals a resync
// because notifications sent while disconnected are lost.
type PostgresSource struct {
	listener     *pq.Listener
	channel      string
	events       chan models.StatusChangeEvent
	resyncs      chan struct{}
	pingInterval time.Duration
	logger       *slog.Logger
	metrics      *Metrics
}

type PostgresOption func(*PostgresSource)

func WithSourceLogger(logger *slog.Logger) PostgresOption {
	return func(s *PostgresSource) {
		s.logger = logger
	}
}

func WithSourceMetrics(m *Metrics) PostgresOption {
	return func(s *PostgresSource) {
		s.metrics = m
	}
}

func WithPingInterval(d time.Duration) PostgresOption {
	return func(s *PostgresSource) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

func NewPostgresSource(dsn, channel string, opts ...PostgresOption) *PostgresSource {
	s := &PostgresSource{
		channel:      channel,
		events:       make(chan models.StatusChangeEvent, defaultBuffer),
		resyncs:      make(chan struct{}, 1),
		pingInterval: defaultPingInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.listener = pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, s.onListenerEvent)
	return s
}

func (s *PostgresSource) Events() <-chan models.StatusChangeEvent {
	return s.events
}

func (s *PostgresSource) Resyncs() <-chan struct{} {
	return s.resyncs
}

// Run listens until ctx is cancelled and closes the listener on return.
func (s *PostgresSource) Run(ctx context.Context) error {
	if err := s.listener.Listen(s.channel); err != nil {
		_ = s.listener.Close()
		return fmt.Errorf("listen on %s: %w", s.channel, err)
	}
	defer s.listener.Close()

	s.logger.InfoContext(ctx, "listening for status changes", "channel", s.channel)
	// Changes committed before we started listening were never delivered.
	s.signalResync()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-s.listener.Notify:
			// nil after a reconnect; onListenerEvent already signalled.
			if n == nil {
				continue
			}
			event, err := decodeNotification(n.Extra)
			if err != nil {
				s.metrics.IncDecodeFailure()
				s.logger.WarnContext(ctx, "dropping undecodable status notification",
					"channel", n.Channel,
					"error", err,
				)
				continue
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				return nil
			}
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.logger.Warn("status listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *PostgresSource) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		s.logger.Warn("status listener disconnected", "error", err)
	case pq.ListenerEventConnectionAttemptFailed:
		s.logger.Warn("status listener reconnect attempt failed", "error", err)
	case pq.ListenerEventReconnected:
		s.logger.Info("status listener reconnected")
		s.signalResync()
	}
}

// signalResync coalesces: one pending signal is enough.
func (s *PostgresSource) signalResync() {
	select {
	case s.resyncs <- struct{}{}:
	default:
	}
}

func decodeNotification(payload string) (models.StatusChangeEvent, error) {
	var event models.StatusChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return models.StatusChangeEvent{}, fmt.Errorf("decode status notification: %w", err)
	}
	if event.CreditRequestID.IsNil() || event.ToStatusID.IsNil() {
		return models.StatusChangeEvent{}, fmt.Errorf("status notification is missing ids")
	}
	return event, nil
}
