// Package psub contains the subscriber side of the telemetry feed:
// it connects to a publisher, reads length-prefixed frames,
// and delivers decoded messages to a queue drained by the viewer.
package psub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/pitwall-engine/pitwall/internal/pqueue"
	"github.com/pitwall-engine/pitwall/pwire"
)

// Config is the configuration for [New].
type Config struct {
	// Address of the publisher.
	// Defaults to 127.0.0.1 and port 1024.
	Host string
	Port int

	// Connect retry pacing: exponential backoff
	// from RetryFloor (default 10ms, kept low so local restarts
	// reconnect quickly) up to RetryCeil (default 1s).
	RetryFloor time.Duration
	RetryCeil  time.Duration
}

const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 1024
	defaultRetryFloor = 10 * time.Millisecond
	defaultRetryCeil  = time.Second
)

// Delivery is one entry on the subscriber's queue.
// Either Msg is a decoded message,
// or Err marks a payload that failed to decode
// (forwarded explicitly so the consumer can log and skip it
// instead of blocking on a missing frame).
type Delivery struct {
	Msg pwire.Message
	Err error
}

// Subscriber reads the publisher's stream into a delivery queue.
// Start it with [*Subscriber.Run]; drain [*Subscriber.Deliveries].
type Subscriber struct {
	log *slog.Logger

	addr       string
	retryFloor time.Duration
	retryCeil  time.Duration

	q *pqueue.Queue[Delivery]
}

// New returns a subscriber that is not yet connected.
func New(log *slog.Logger, cfg Config) *Subscriber {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	floor := cfg.RetryFloor
	if floor == 0 {
		floor = defaultRetryFloor
	}
	ceil := cfg.RetryCeil
	if ceil == 0 {
		ceil = defaultRetryCeil
	}
	if ceil < floor {
		ceil = floor
	}

	return &Subscriber{
		log: log,

		addr:       net.JoinHostPort(host, strconv.Itoa(port)),
		retryFloor: floor,
		retryCeil:  ceil,

		q: pqueue.New[Delivery](),
	}
}

// Deliveries returns the queue the read loop pushes onto.
// The queue must have a single consumer.
func (s *Subscriber) Deliveries() *pqueue.Queue[Delivery] {
	return s.q
}

// Run connects (retrying until the context is canceled)
// and then reads frames until the sentinel arrives
// or the stream ends.
//
// The sentinel is delivered onward unchanged before Run returns,
// so the consumer observes end-of-stream itself.
// Run does not support being called again after it returns.
func (s *Subscriber) Run(ctx context.Context) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop if the context is canceled.
	stopCancel := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stopCancel()

	s.log.Info("Connected to publisher", "addr", s.addr)

	for {
		payload, err := pwire.ReadPayload(conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				// Remote closed between frames; clean end-of-stream.
				s.log.Info("Stream closed by publisher")
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		msg, err := pwire.DecodeMessage(payload)
		if err != nil {
			s.log.Warn("Dropping undecodable payload", "err", err)
			s.q.Push(Delivery{Err: err})
			continue
		}

		s.q.Push(Delivery{Msg: msg})

		if _, isSentinel := msg.(pwire.Sentinel); isSentinel {
			s.log.Info("Sentinel received, closing connection")
			return nil
		}
	}
}

func (s *Subscriber) connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer

	backoff := s.retryFloor
	for {
		conn, err := d.DialContext(ctx, "tcp", s.addr)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.log.Debug("Connect failed, retrying", "addr", s.addr, "backoff", backoff, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.retryCeil {
			backoff = s.retryCeil
		}
	}
}
