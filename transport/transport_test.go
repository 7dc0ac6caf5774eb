package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-go/fault"
)

func TestFileTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.bin")

	tr, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, tr.Path())

	n, err := tr.Write([]byte{0x1B, 0x40})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = tr.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x1B, 0x40}, "hello\n"...), got)

	require.NoError(t, tr.Close())
}

func TestFileTransportAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.bin")
	require.NoError(t, os.WriteFile(path, []byte("A"), 0o644))

	tr, err := OpenFile(path)
	require.NoError(t, err)
	_, err = tr.Write([]byte("B"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(got))
}

func TestFileTransportOpenFailsEagerly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "receipt.bin")

	tr, err := OpenFile(path)
	assert.Nil(t, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrTransport)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileTransportWriteAfterClose(t *testing.T) {
	tr, err := OpenFile(filepath.Join(t.TempDir(), "closed.bin"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	_, err = tr.Write([]byte("late"))
	require.NoError(t, err, "buffered write succeeds")
	assert.Error(t, tr.Flush())
}

func TestNetworkTransport(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	host, port := splitAddr(t, ln.Addr().String())
	tr, err := OpenNetwork(host, port)
	require.NoError(t, err)
	assert.Equal(t, ln.Addr().String(), tr.Addr())

	_, err = tr.Write([]byte("Hello, Printer!"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush())
	require.NoError(t, tr.Close())

	select {
	case data := <-received:
		assert.Equal(t, "Hello, Printer!", string(data))
	case <-time.After(time.Second):
		t.Fatal("no data received")
	}
}

func TestNetworkTransportOpenFailsEagerly(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := splitAddr(t, ln.Addr().String())
	require.NoError(t, ln.Close())

	tr, err := OpenNetwork(host, port)
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, fault.ErrTransport)
}

func TestConsoleTransport(t *testing.T) {
	var buf bytes.Buffer
	tr := NewConsoleWithWriter(&buf)
	assert.False(t, tr.IsTerminal())

	_, err := tr.Write([]byte("Hello"))
	require.NoError(t, err)
	assert.Empty(t, buf.Bytes(), "nothing reaches the console before Flush")

	require.NoError(t, tr.Flush())
	assert.Equal(t, "Hello", buf.String())
	require.NoError(t, tr.Close())
}

func TestOpenConsoleNeverFails(t *testing.T) {
	tr := OpenConsole()
	require.NotNil(t, tr)
	require.NoError(t, tr.Flush())
}

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestConsoleTransportReportsWriteFailure(t *testing.T) {
	broken := errors.New("broken pipe")
	tr := NewConsoleWithWriter(failingWriter{err: broken})

	_, err := tr.Write([]byte("x"))
	require.NoError(t, err)

	err = tr.Flush()
	assert.ErrorIs(t, err, broken)
}

func TestClaimOnce(t *testing.T) {
	transports := map[string]Claimer{
		"console": NewConsoleWithWriter(io.Discard),
	}
	f, err := OpenFile(filepath.Join(t.TempDir(), "claim.bin"))
	require.NoError(t, err)
	defer f.Close()
	transports["file"] = f

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tr.Claim())
			assert.ErrorIs(t, tr.Claim(), ErrAlreadyBound)
		})
	}
}

func TestUSBTransportAuto(t *testing.T) {
	tr, err := OpenUSBAuto()
	if err != nil {
		assert.ErrorIs(t, err, fault.ErrTransport)
		t.Skip("No USB printer found, skipping test")
	}
	defer tr.Close()

	assert.NotNil(t, tr.Device())
	assert.True(t, IsPrinter(tr.Device()))

	n, err := tr.Write([]byte{0x1B, 0x40})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, tr.Flush())

	require.NoError(t, tr.Close())
	assert.Nil(t, tr.Device())
	assert.NoError(t, tr.Close(), "double close is a no-op")
}

func TestOpenUSBBySerialNotFound(t *testing.T) {
	_, err := OpenUSBBySerial("INVALID_SERIAL_NUMBER")
	assert.ErrorIs(t, err, fault.ErrTransport)
}

func TestIsPrinterNil(t *testing.T) {
	assert.False(t, IsPrinter(nil))
}

func splitAddr(t *testing.T, addr string) (string, uint16) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return host, uint16(port)
}
