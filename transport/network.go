package transport

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/nixxel-company-limited/escpos-go/fault"
)

// DefaultPort is the raw printing port most network printers listen on.
const DefaultPort = 9100

// NetworkTransport writes to a printer over TCP.
type NetworkTransport struct {
	binding
	addr   string
	conn   net.Conn
	w      *bufio.Writer
	logger *slog.Logger
}

// OpenNetwork connects to host:port. The connection is established before
// OpenNetwork returns.
func OpenNetwork(host string, port uint16, opts ...Option) (*NetworkTransport, error) {
	o := buildOptions(opts)
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fault.Transportf("open network", err)
	}

	logger := o.logger.With("transport", "network", "addr", addr)
	logger.Debug("network transport connected", "local", conn.LocalAddr().String())

	return &NetworkTransport{
		addr:   addr,
		conn:   conn,
		w:      bufio.NewWriter(conn),
		logger: logger,
	}, nil
}

// Addr returns the remote address.
func (t *NetworkTransport) Addr() string {
	return t.addr
}

// Write buffers data; it is sent on Flush or when the buffer fills.
func (t *NetworkTransport) Write(data []byte) (int, error) {
	n, err := writeAll(t.w, data)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", t.addr, err)
	}
	return n, nil
}

// Flush sends buffered bytes.
func (t *NetworkTransport) Flush() error {
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", t.addr, err)
	}
	return nil
}

// Close flushes and closes the connection.
func (t *NetworkTransport) Close() error {
	flushErr := t.w.Flush()
	closeErr := t.conn.Close()
	t.logger.Debug("network transport closed")
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", t.addr, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", t.addr, closeErr)
	}
	return nil
}

var _ Transport = (*NetworkTransport)(nil)
