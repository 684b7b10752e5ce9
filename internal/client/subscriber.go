package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/transport"
)

const (
	defaultReconnectBase = 500 * time.Millisecond
	defaultReconnectMax  = 15 * time.Second
)

// Subscriber keeps a websocket joined to one campaign room and feeds its
// sink. Each join starts from the snapshot the server sends back; a gap in
// event sequence numbers triggers a fresh join.
type Subscriber struct {
	url        string
	origin     string
	campaignID int64
	sink       Sink
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithReconnectBackoff bounds the delay between reconnect attempts.
func WithReconnectBackoff(base, limit time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if base > 0 {
			s.minBackoff = base
		}
		if limit > 0 {
			s.maxBackoff = limit
		}
	}
}

func WithSubscriberLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSubscriber creates a subscriber for the server at baseURL.
func NewSubscriber(baseURL string, campaignID int64, sink Sink, opts ...SubscriberOption) *Subscriber {
	base := strings.TrimRight(baseURL, "/")
	s := &Subscriber{
		url:        "ws" + strings.TrimPrefix(base, "http") + "/ws",
		origin:     base,
		campaignID: campaignID,
		sink:       sink,
		minBackoff: defaultReconnectBase,
		maxBackoff: defaultReconnectMax,
		logger:     slog.New(slog.DiscardHandler),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects and reconnects until ctx is done or Close is called.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := Backoff{Base: s.minBackoff, Max: s.maxBackoff, Multiplier: 2, Jitter: 0.25}
	for {
		if s.isClosed() {
			return nil
		}

		err := s.session(ctx, backoff.Reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.isClosed() {
			return nil
		}
		if err != nil {
			s.sink.Fail(err)
		}

		delay := backoff.Next()
		s.logger.Warn("campaign subscription dropped",
			"campaign_id", s.campaignID,
			"attempt", backoff.Attempts(),
			"retry_in", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-time.After(delay):
		}
	}
}

// Close leaves the room and stops Run.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Subscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscriber) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

func (s *Subscriber) untrack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
}

func (s *Subscriber) session(ctx context.Context, onJoined func()) error {
	cfg, err := websocket.NewConfig(s.url, s.origin)
	if err != nil {
		return fmt.Errorf("websocket config: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.url, err)
	}
	defer func() {
		_ = conn.Close()
	}()
	if !s.track(conn) {
		return nil
	}
	defer s.untrack()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.join(conn); err != nil {
		return err
	}

	joined := false
	var lastSeq int64
	for {
		var frame transport.Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		switch frame.Type {
		case transport.FrameCampaignJoined:
			var payload transport.JoinedPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				return fmt.Errorf("decoding joined frame: %w", err)
			}
			if payload.Campaign != nil {
				s.sink.Replace(*payload.Campaign)
			}
			lastSeq = payload.LatestSeq
			joined = true
			onJoined()
			s.logger.Debug("joined campaign room", "campaign_id", s.campaignID, "seq", lastSeq)

		case transport.FrameCharacterUpdated, transport.FrameCharacterCreated, transport.FrameCampaignUpdated:
			if !joined {
				continue
			}
			var ev broadcast.Event
			if err := json.Unmarshal(frame.Payload, &ev); err != nil {
				return fmt.Errorf("decoding %s frame: %w", frame.Type, err)
			}
			if ev.Seq <= lastSeq {
				continue
			}
			if ev.Seq > lastSeq+1 {
				s.logger.Info("missed campaign events, rejoining",
					"campaign_id", s.campaignID,
					"have", lastSeq,
					"got", ev.Seq,
				)
				joined = false
				if err := s.join(conn); err != nil {
					return err
				}
				continue
			}
			lastSeq = ev.Seq
			s.sink.Merge(ev)

		case transport.FrameError:
			var payload transport.ErrorPayload
			_ = json.Unmarshal(frame.Payload, &payload)
			if !joined {
				return fmt.Errorf("join rejected (%s): %s", payload.Code, payload.Message)
			}
			s.logger.Warn("campaign channel error", "campaign_id", s.campaignID, "code", payload.Code, "message", payload.Message)
		}
	}
}

func (s *Subscriber) join(conn *websocket.Conn) error {
	payload, err := json.Marshal(transport.JoinPayload{CampaignID: s.campaignID})
	if err != nil {
		return err
	}
	frame := transport.Frame{
		Type:      transport.FrameCampaignJoin,
		RequestID: fmt.Sprintf("join-%d", s.campaignID),
		Payload:   payload,
	}
	if err := websocket.JSON.Send(conn, frame); err != nil {
		return fmt.Errorf("sending join: %w", err)
	}
	return nil
}
