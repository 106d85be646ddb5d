package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haukened/crypto-guard/internal/guard/common/log"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// HTTPTransport serves the guard API over plain HTTP.
type HTTPTransport struct {
	addr   string
	logger log.Logger

	mu       sync.Mutex
	running  bool
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewHTTPTransport creates a transport that will listen on addr.
func NewHTTPTransport(addr string, logger log.Logger) *HTTPTransport {
	return &HTTPTransport{addr: addr, logger: logger}
}

// Start binds addr and serves in a background goroutine. Cancelling ctx stops
// the transport.
func (t *HTTPTransport) Start(ctx context.Context, svc Services) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("HTTP transport already running")
	}
	if svc.Checker == nil {
		return fmt.Errorf("HTTP transport requires a URL checker")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}

	t.listener = ln
	t.server = &http.Server{
		Handler:           NewRouter(svc, t.logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	t.done = make(chan struct{})
	t.running = true

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   ln.Addr().String(),
	}, "HTTP transport started")

	go t.serve(t.server, ln, t.done)
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "HTTP transport stopping due to context cancellation")
			_ = t.Stop()
		case <-done:
		}
	}(t.done)
	return nil
}

func (t *HTTPTransport) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.logger.Error(map[string]any{
			"error": err,
		}, "HTTP transport stopped unexpectedly")
	}
}

// Stop drains in-flight requests and closes the listener.
func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	srv, done := t.server, t.done
	t.running = false
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   t.Address(),
	}, "HTTP transport stopped")
	return err
}

// Address returns the bound address after Start, else the configured one.
func (t *HTTPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

var _ ServerTransport = (*HTTPTransport)(nil)
