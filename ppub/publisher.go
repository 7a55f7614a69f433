// Package ppub contains the publisher side of the telemetry feed:
// it accepts exactly one inbound TCP connection and relays queued
// messages to it in order.
package ppub

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pitwall-engine/pitwall/internal/pqueue"
	"github.com/pitwall-engine/pitwall/pwire"
)

// ErrTerminated is returned by [*Publisher.Publish]
// once [*Publisher.Terminate] has been called.
var ErrTerminated = errors.New("publisher is terminated")

// Config is the configuration for [New].
type Config struct {
	// Address to listen on.
	// Defaults to 127.0.0.1 and port 1024.
	// A port of -1 requests an ephemeral port (useful in tests;
	// the bound address is available from [*Publisher.Addr]).
	Host string
	Port int

	// How long to wait for the single subscriber to connect.
	// Exceeding it is fatal: there is no retry.
	// Defaults to 15 seconds.
	AcceptTimeout time.Duration
}

const (
	defaultHost          = "127.0.0.1"
	defaultPort          = 1024
	defaultAcceptTimeout = 15 * time.Second

	// How long the sender loop waits on an empty queue
	// before checking for shutdown.
	sendPollInterval = 100 * time.Millisecond
)

// Publisher owns a listening socket and a background sender goroutine.
// Messages given to [*Publisher.Publish] accumulate in an internal
// queue until the one subscriber connects, and are then relayed in
// publish order as length-prefixed frames.
type Publisher struct {
	log *slog.Logger

	ln *net.TCPListener
	q  *pqueue.Queue[pwire.Message]

	acceptTimeout time.Duration

	mu         sync.Mutex
	history    []pwire.Message
	terminated bool

	terminateOnce sync.Once

	// Closed by Terminate, before the listener closes.
	stop chan struct{}

	// Closed when the sender goroutine exits; runErr is set first.
	done   chan struct{}
	runErr error
}

// New binds the listening socket and starts the sender goroutine.
// The sender waits for one subscriber; if none connects within the
// accept timeout, the publisher fails and [*Publisher.Wait] reports it.
func New(log *slog.Logger, cfg Config) (*Publisher, error) {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	} else if port == -1 {
		port = 0
	}
	acceptTimeout := cfg.AcceptTimeout
	if acceptTimeout == 0 {
		acceptTimeout = defaultAcceptTimeout
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s:%d: %w", host, port, err)
	}

	p := &Publisher{
		log: log,

		ln: ln.(*net.TCPListener),
		q:  pqueue.New[pwire.Message](),

		acceptTimeout: acceptTimeout,

		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go p.run()

	return p, nil
}

// Addr returns the bound listening address.
func (p *Publisher) Addr() net.Addr {
	return p.ln.Addr()
}

// Publish enqueues msg for transmission. It never blocks:
// if the subscriber has not connected yet, messages accumulate.
// It returns [ErrTerminated] after [*Publisher.Terminate].
func (p *Publisher) Publish(msg pwire.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminated {
		return ErrTerminated
	}

	p.history = append(p.history, msg)
	p.q.Push(msg)
	p.log.Debug("Enqueued message", "queue_len", p.q.Len())
	return nil
}

// History returns a copy of every message accepted so far,
// in publish order. Diagnostic only.
func (p *Publisher) History() []pwire.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]pwire.Message, len(p.history))
	copy(out, p.history)
	return out
}

// Terminate shuts the publisher down:
// no further publishes are accepted, the sentinel is sent best-effort
// so the remote side can stop cleanly, the sender goroutine is joined,
// and the sockets are closed. Safe to call more than once.
func (p *Publisher) Terminate() {
	p.terminateOnce.Do(func() {
		p.mu.Lock()
		p.terminated = true
		p.mu.Unlock()

		// The sender drains everything already queued,
		// then sees the sentinel and exits.
		p.q.Push(pwire.Sentinel{})

		close(p.stop)

		// Unblock a pending accept.
		// Harmless if the subscriber already connected.
		_ = p.ln.Close()

		<-p.done
		p.log.Debug("Sender goroutine joined")
	})
}

// Wait blocks until the sender goroutine has exited
// and reports its fatal error, if any.
// An accept timeout and a failed send are both fatal;
// a clean Terminate is not.
func (p *Publisher) Wait() error {
	<-p.done
	return p.runErr
}

func (p *Publisher) run() {
	defer close(p.done)

	p.log.Info("Waiting for subscriber", "addr", p.ln.Addr().String())

	if err := p.ln.SetDeadline(time.Now().Add(p.acceptTimeout)); err != nil {
		p.runErr = fmt.Errorf("failed to set accept deadline: %w", err)
		return
	}

	conn, err := p.ln.Accept()
	if err != nil {
		select {
		case <-p.stop:
			// Terminated before any subscriber arrived; not a failure.
			return
		default:
		}
		p.runErr = fmt.Errorf("no subscriber connected within %v: %w", p.acceptTimeout, err)
		p.log.Error("Accept failed", "err", p.runErr)
		return
	}
	defer conn.Close()

	p.log.Info("Subscriber connected", "remote", conn.RemoteAddr().String())

	for {
		msg, ok := p.q.Pop(sendPollInterval)
		if !ok {
			continue
		}

		if err := pwire.WriteMessage(conn, msg); err != nil {
			p.runErr = fmt.Errorf("failed to send message: %w", err)
			p.log.Error("Send failed", "err", err)
			return
		}

		if _, isSentinel := msg.(pwire.Sentinel); isSentinel {
			p.log.Info("Sentinel sent, closing connection")
			return
		}
	}
}
