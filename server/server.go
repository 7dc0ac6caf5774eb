package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nixxel-company-limited/escpos-go/transport"
)

// readBufferSize is the largest chunk forwarded to the transport at once.
const readBufferSize = 4096

// shutdownTimeout bounds the metrics endpoint's graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the counters the server updates.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMetricsAddress serves the metrics on addr at /metrics while Run is
// active. An empty address disables the endpoint.
func WithMetricsAddress(addr string) Option {
	return func(s *Server) {
		s.metricsAddress = addr
	}
}

// Server is a raw print relay: a TCP server that forwards everything its
// clients send to a printer transport.
type Server struct {
	transport      transport.Transport
	listener       net.Listener
	address        string
	metricsAddress string
	mu             sync.Mutex
	writeMu        sync.Mutex
	running        bool
	conns          map[net.Conn]struct{}
	wg             sync.WaitGroup
	logger         *slog.Logger
	metrics        *Metrics
}

// New creates a new relay in front of t. The server owns t and closes it on
// Stop.
func New(t transport.Transport, address string, opts ...Option) *Server {
	s := &Server{
		transport: t,
		address:   address,
		conns:     make(map[net.Conn]struct{}),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:   NewMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	if err := s.listen("blocking"); err != nil {
		return err
	}

	s.wg.Add(1)
	s.acceptConnections()
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	if err := s.listen("async"); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.acceptConnections()
	s.logger.Debug("server started in background")
	return nil
}

func (s *Server) listen(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("starting server", "address", s.address, "mode", mode)

	if s.running {
		s.logger.Error("server already running")
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error("failed to start server", "err", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.logger.Info("server listening", "address", listener.Addr().String())
	return nil
}

// Run starts the relay and, when configured, the metrics endpoint, and
// serves until ctx is done or either fails. The relay is stopped before Run
// returns.
func (s *Server) Run(ctx context.Context) error {
	if err := s.StartAsync(); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	if s.metricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		srv := &http.Server{Addr: s.metricsAddress, Handler: mux, ReadHeaderTimeout: shutdownTimeout}

		g.Go(func() error {
			s.logger.Info("metrics endpoint listening", "address", s.metricsAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return s.Stop()
	})

	return g.Wait()
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.IsRunning() {
				s.logger.Debug("server shutting down, stopping accept loop")
				return
			}
			s.logger.Warn("error accepting connection", "err", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		s.metrics.Connections.Inc()
		go s.handleConnection(conn)
	}
}

// track registers conn so Stop can close it. It fails once the server is
// stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConnection relays a single client connection
func (s *Server) handleConnection(conn net.Conn) {
	logger := s.logger.With("conn_id", uuid.New().String(), "remote", conn.RemoteAddr().String())
	defer s.wg.Done()
	defer func() {
		s.untrack(conn)
		conn.Close()
		logger.Info("client disconnected")
	}()

	logger.Info("client connected")

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if writeErr := s.forward(buf[:n]); writeErr != nil {
				s.metrics.WriteErrors.Inc()
				logger.Error("error writing to printer", "err", writeErr)
				return
			}
			s.metrics.Bytes.Add(float64(n))
			logger.Debug("relayed chunk", "bytes", n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Debug("client closed connection")
			} else {
				logger.Warn("error reading from client", "err", err)
			}
			return
		}
	}
}

// forward writes one chunk and flushes it. Chunks from concurrent clients
// never interleave.
func (s *Server) forward(chunk []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.transport.Write(chunk); err != nil {
		return err
	}
	return s.transport.Flush()
}

// Stop closes the listener and every client connection, waits for them to
// finish, and closes the transport.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debug("stop called but server is not running")
		return nil
	}

	s.logger.Info("stopping server")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.wg.Wait()
	s.logger.Debug("all connections closed")

	s.writeMu.Lock()
	err := s.transport.Close()
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Error("error closing transport", "err", err)
		return fmt.Errorf("close transport: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the bound address while running, otherwise the configured
// one.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.address
}

// Transport returns the underlying transport
func (s *Server) Transport() transport.Transport {
	return s.transport
}

// Metrics returns the server's counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
