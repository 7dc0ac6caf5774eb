package transport

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// ConsoleTransport writes to standard output.
type ConsoleTransport struct {
	binding
	w      *bufio.Writer
	fd     int
	logger *slog.Logger
}

// OpenConsole returns a transport writing to standard output. It cannot fail.
func OpenConsole(opts ...Option) *ConsoleTransport {
	t := NewConsoleWithWriter(os.Stdout, opts...)
	t.fd = int(os.Stdout.Fd())
	return t
}

// NewConsoleWithWriter returns a console transport writing to w.
func NewConsoleWithWriter(w io.Writer, opts ...Option) *ConsoleTransport {
	o := buildOptions(opts)
	return &ConsoleTransport{
		w:      bufio.NewWriter(w),
		fd:     -1,
		logger: o.logger.With("transport", "console"),
	}
}

// IsTerminal reports whether output goes to an interactive terminal, where
// raw control bytes will be interpreted by the terminal emulator.
func (t *ConsoleTransport) IsTerminal() bool {
	return t.fd >= 0 && term.IsTerminal(t.fd)
}

// Write buffers data until Flush.
func (t *ConsoleTransport) Write(data []byte) (int, error) {
	n, err := writeAll(t.w, data)
	if err != nil {
		return n, fmt.Errorf("write console: %w", err)
	}
	return n, nil
}

// Flush writes buffered bytes to the console.
func (t *ConsoleTransport) Flush() error {
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush console: %w", err)
	}
	return nil
}

// Close flushes. Standard output is left open.
func (t *ConsoleTransport) Close() error {
	err := t.Flush()
	t.logger.Debug("console transport closed")
	return err
}

var _ Transport = (*ConsoleTransport)(nil)
