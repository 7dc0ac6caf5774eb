package transport

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/nixxel-company-limited/escpos-go/fault"
)

// FileTransport writes to a file or a character device such as /dev/usb/lp0.
type FileTransport struct {
	binding
	path   string
	file   *os.File
	w      *bufio.Writer
	logger *slog.Logger
}

// OpenFile opens path for writing, creating it if needed.
func OpenFile(path string, opts ...Option) (*FileTransport, error) {
	o := buildOptions(opts)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fault.Transportf("open file", err)
	}

	logger := o.logger.With("transport", "file", "path", path)
	logger.Debug("file transport opened")

	return &FileTransport{
		path:   path,
		file:   f,
		w:      bufio.NewWriter(f),
		logger: logger,
	}, nil
}

// Path returns the file the transport writes to.
func (t *FileTransport) Path() string {
	return t.path
}

// Write buffers data; it reaches the file on Flush or when the buffer fills.
func (t *FileTransport) Write(data []byte) (int, error) {
	n, err := writeAll(t.w, data)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", t.path, err)
	}
	return n, nil
}

// Flush writes buffered bytes to the file.
func (t *FileTransport) Flush() error {
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", t.path, err)
	}
	return nil
}

// Close flushes and closes the file.
func (t *FileTransport) Close() error {
	flushErr := t.w.Flush()
	closeErr := t.file.Close()
	t.logger.Debug("file transport closed")
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", t.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", t.path, closeErr)
	}
	return nil
}

var _ Transport = (*FileTransport)(nil)
