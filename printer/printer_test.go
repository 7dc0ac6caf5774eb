package printer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-go/bridge"
	"github.com/nixxel-company-limited/escpos-go/command"
	"github.com/nixxel-company-limited/escpos-go/escpos"
	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
	"github.com/nixxel-company-limited/escpos-go/transport"
)

// recordingTransport captures everything written to it.
type recordingTransport struct {
	data    []byte
	flushes int
	closed  bool
}

func (r *recordingTransport) Write(data []byte) (int, error) {
	r.data = append(r.data, data...)
	return len(data), nil
}

func (r *recordingTransport) Flush() error {
	r.flushes++
	return nil
}

func (r *recordingTransport) Close() error {
	r.closed = true
	return nil
}

// MockTransport is a testify mock of transport.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Write(data []byte) (int, error) {
	args := m.Called(data)
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Flush() error {
	return m.Called().Error(0)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

func openRecording(t *testing.T) (*Printer, *recordingTransport) {
	t.Helper()
	rec := &recordingTransport{}
	p, err := Open(rec)
	require.NoError(t, err)
	require.NoError(t, p.Init())
	rec.data = nil
	return p, rec
}

func TestStateMirrorsEnums(t *testing.T) {
	p, _ := openRecording(t)

	for _, a := range []escpos.Alignment{escpos.AlignLeft, escpos.AlignCenter, escpos.AlignRight} {
		require.NoError(t, p.Align(a))
		assert.Equal(t, a, p.State().Alignment)
	}
	for _, f := range []escpos.Font{escpos.FontA, escpos.FontB, escpos.FontC} {
		require.NoError(t, p.Font(f))
		assert.Equal(t, f, p.State().Font)
	}
	for _, u := range []escpos.UnderlineMode{escpos.UnderlineNone, escpos.UnderlineSingle, escpos.UnderlineDouble} {
		require.NoError(t, p.Underline(u))
		assert.Equal(t, u, p.State().Underline)
	}
}

func TestStateMirrorsFlagsAndDimensions(t *testing.T) {
	p, _ := openRecording(t)

	require.NoError(t, p.Bold(true))
	require.NoError(t, p.DoubleStrike(true))
	require.NoError(t, p.Flip(true))
	require.NoError(t, p.ReverseColours(true))
	require.NoError(t, p.LineSpacing(48))
	require.NoError(t, p.Left(32))
	require.NoError(t, p.Width(512))
	require.NoError(t, p.TextSize(2, 3))

	s := p.State()
	assert.True(t, s.Bold)
	assert.True(t, s.DoubleStrike)
	assert.True(t, s.Flip)
	assert.True(t, s.ReverseColours)
	assert.Equal(t, opt.Some[uint8](48), s.LineSpacing)
	assert.Equal(t, uint16(32), s.LeftMargin)
	assert.Equal(t, opt.Some[uint16](512), s.PrintWidth)
	assert.Equal(t, uint8(2), s.TextWidth)
	assert.Equal(t, uint8(3), s.TextHeight)

	require.NoError(t, p.ResetLineSpacing())
	require.NoError(t, p.ResetTextSize())
	s = p.State()
	assert.True(t, s.LineSpacing.IsNone())
	assert.Equal(t, uint8(1), s.TextWidth)
	assert.Equal(t, uint8(1), s.TextHeight)
	assert.True(t, s.Bold, "resetting one field leaves the others alone")
}

func TestResetKeepsMargins(t *testing.T) {
	p, rec := openRecording(t)

	require.NoError(t, p.Left(10))
	require.NoError(t, p.Width(400))
	require.NoError(t, p.Bold(true))
	require.NoError(t, p.Align(escpos.AlignRight))
	rec.data = nil

	require.NoError(t, p.Reset())
	assert.Equal(t, escpos.Reset(), rec.data)

	want := DefaultState()
	want.LeftMargin = 10
	want.PrintWidth = opt.Some[uint16](400)
	assert.Equal(t, want, p.State())
}

func TestPrintlnAndTextAreIdentical(t *testing.T) {
	for _, s := range []string{"", "Hello", "World", "你好", "line\twith\ttabs", "trailing\n"} {
		p1, rec1 := openRecording(t)
		p2, rec2 := openRecording(t)

		require.NoError(t, p1.Println(s))
		require.NoError(t, p2.Text(s))
		assert.Equal(t, rec1.data, rec2.data, "input %q", s)
		assert.Equal(t, append([]byte(s), '\n'), rec1.data)
	}
}

func TestPrintHasNoTerminator(t *testing.T) {
	p, rec := openRecording(t)
	require.NoError(t, p.Print("abc"))
	assert.Equal(t, []byte("abc"), rec.data)
}

func TestFeedZeroIsNoop(t *testing.T) {
	p, rec := openRecording(t)

	require.NoError(t, p.Feed(0))
	require.NoError(t, p.ReverseFeed(0))
	assert.Empty(t, rec.data)

	require.NoError(t, p.Feed(3))
	require.NoError(t, p.ReverseFeed(1))
	assert.Equal(t, []byte{0x1B, 'd', 3, 0x1B, 'e', 1}, rec.data)
}

func TestCutAndPartialCutDiffer(t *testing.T) {
	p, rec := openRecording(t)
	require.NoError(t, p.Cut())
	full := rec.data
	rec.data = nil

	require.NoError(t, p.PartialCut())
	assert.Equal(t, escpos.Cut(), full)
	assert.Equal(t, escpos.PartialCut(), rec.data)
	assert.NotEqual(t, full, rec.data)
}

func TestConsoleEndToEnd(t *testing.T) {
	var out bytes.Buffer
	p, err := Open(transport.NewConsoleWithWriter(&out))
	require.NoError(t, err)

	require.NoError(t, p.Init())
	require.NoError(t, p.Align(escpos.AlignCenter))
	require.NoError(t, p.Text("Hello"))
	require.NoError(t, p.Println("World"))
	require.NoError(t, p.Feed(4))
	require.NoError(t, p.Cut())
	require.NoError(t, p.Flush())

	align, err := escpos.Align(escpos.AlignCenter)
	require.NoError(t, err)

	var want []byte
	want = append(want, escpos.Init()...)
	want = append(want, align...)
	want = append(want, escpos.Line("Hello")...)
	want = append(want, escpos.Line("World")...)
	want = append(want, escpos.Feed(4)...)
	want = append(want, escpos.Cut()...)
	assert.Equal(t, want, out.Bytes())
}

func TestQREndToEnd(t *testing.T) {
	p, rec := openRecording(t)

	var calls atomic.Int32
	produce := bridge.Async(func() (command.QRDescriptor, error) {
		calls.Add(1)
		return command.QRDescriptor{
			Size:  opt.Some[uint8](6),
			Text:  opt.Some("ABC"),
			Model: opt.Some(escpos.QRModel2),
			Level: opt.Some(escpos.QRLevelHigh),
		}, nil
	})

	require.NoError(t, p.QR(context.Background(), produce))
	assert.Equal(t, int32(1), calls.Load())

	want, err := escpos.QR{
		Size:  opt.Some[uint8](6),
		Text:  opt.Some("ABC"),
		Model: opt.Some(escpos.QRModel2),
		Level: opt.Some(escpos.QRLevelHigh),
	}.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, rec.data)
}

func TestBuilderProducerCalledOncePerOperation(t *testing.T) {
	p, _ := openRecording(t)

	var qrCalls, barcodeCalls atomic.Int32
	qr := func() bridge.Future[command.QRDescriptor] {
		qrCalls.Add(1)
		return bridge.Ready(command.QRDescriptor{Text: opt.Some("loop")})
	}
	barcode := func() bridge.Future[command.BarcodeDescriptor] {
		barcodeCalls.Add(1)
		return bridge.Ready(command.BarcodeDescriptor{Text: opt.Some("LOOP")})
	}

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, p.QR(context.Background(), qr))
		require.NoError(t, p.Barcode(context.Background(), barcode))
	}
	assert.Equal(t, int32(n), qrCalls.Load())
	assert.Equal(t, int32(n), barcodeCalls.Load())
}

func TestBuilderCancelledProducerWritesNothing(t *testing.T) {
	p, rec := openRecording(t)

	never := bridge.NewPromise[command.QRDescriptor]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.QR(ctx, func() bridge.Future[command.QRDescriptor] { return never })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.data)

	// A late resolution does not emit anything either.
	never.Resolve(command.QRDescriptor{Text: opt.Some("late")})
	assert.Empty(t, rec.data)
}

func TestBuilderProducerFailureIsContentError(t *testing.T) {
	p, rec := openRecording(t)

	produce := bridge.Async(func() (command.BarcodeDescriptor, error) {
		return command.BarcodeDescriptor{}, errors.New("lookup failed")
	})
	err := p.Barcode(context.Background(), produce)
	assert.ErrorIs(t, err, fault.ErrContent)
	assert.Empty(t, rec.data)
}

func TestBuilderValidationWritesNothing(t *testing.T) {
	p, rec := openRecording(t)

	err := p.QR(context.Background(), bridge.Value(command.QRDescriptor{
		Text: opt.Some("x"),
		Size: opt.Some[uint8](99),
	}))
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Empty(t, rec.data)
}

func TestEmptyQRDescriptorMaterializesButNeedsText(t *testing.T) {
	p, rec := openRecording(t)

	err := p.QR(context.Background(), bridge.Value(command.QRDescriptor{}))
	assert.ErrorIs(t, err, fault.ErrContent)
	assert.Empty(t, rec.data)
}

func TestBarcodeIgnoresDimensions(t *testing.T) {
	p, rec := openRecording(t)

	require.NoError(t, p.Barcode(context.Background(), bridge.Value(command.BarcodeDescriptor{
		Text:   opt.Some("12345670"),
		System: opt.Some(escpos.EAN8),
		Width:  opt.Some[uint8](4),
		Height: opt.Some[uint8](200),
	})))

	want, err := escpos.Barcode{Text: opt.Some("12345670"), System: opt.Some(escpos.EAN8)}.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, rec.data)
}

func TestGraphic(t *testing.T) {
	p, rec := openRecording(t)

	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 16, 2))))
	require.NoError(t, f.Close())

	require.NoError(t, p.Graphic(context.Background(), bridge.Value(command.GraphicDescriptor{
		Path: path,
		Size: opt.Some(escpos.GraphicDoubleWidthAndHeight),
	})))
	assert.Equal(t, []byte{0x1D, 'v', '0', 3, 2, 0, 2, 0, 0xFF, 0xFF, 0xFF, 0xFF}, rec.data)

	rec.data = nil
	err = p.Graphic(context.Background(), bridge.Value(command.GraphicDescriptor{
		Path: filepath.Join(t.TempDir(), "missing.png"),
	}))
	assert.ErrorIs(t, err, fault.ErrContent)
	assert.NotErrorIs(t, err, fault.ErrTransport)
	assert.Empty(t, rec.data)
}

func TestEmitConsumedCommand(t *testing.T) {
	p, rec := openRecording(t)

	cmd, err := command.NewQR().Text("once").Build()
	require.NoError(t, err)
	require.NoError(t, p.Emit(cmd))
	written := len(rec.data)

	err = p.Emit(cmd)
	assert.ErrorIs(t, err, command.ErrConsumed)
	assert.Len(t, rec.data, written)
}

func TestTransportFailureLeavesStateUntouched(t *testing.T) {
	m := &MockTransport{}
	m.On("Write", escpos.Init()).Return(2, nil).Once()
	m.On("Write", mock.Anything).Return(0, errors.New("broken pipe"))

	p, err := Open(m)
	require.NoError(t, err)
	require.NoError(t, p.Init())
	before := p.State()

	testCases := map[string]func() error{
		"align":       func() error { return p.Align(escpos.AlignRight) },
		"font":        func() error { return p.Font(escpos.FontB) },
		"bold":        func() error { return p.Bold(true) },
		"underline":   func() error { return p.Underline(escpos.UnderlineDouble) },
		"doublestr":   func() error { return p.DoubleStrike(true) },
		"linespacing": func() error { return p.LineSpacing(10) },
		"flip":        func() error { return p.Flip(true) },
		"reverse":     func() error { return p.ReverseColours(true) },
		"left":        func() error { return p.Left(8) },
		"width":       func() error { return p.Width(300) },
		"text_size":   func() error { return p.TextSize(2, 2) },
		"reset":       func() error { return p.Reset() },
	}

	for name, call := range testCases {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.ErrorIs(t, err, fault.ErrTransport)
			assert.Equal(t, before, p.State())
		})
	}
	m.AssertExpectations(t)
}

func TestValidationFailureWritesNothing(t *testing.T) {
	m := &MockTransport{}
	m.On("Write", escpos.Init()).Return(2, nil).Once()

	p, err := Open(m)
	require.NoError(t, err)
	require.NoError(t, p.Init())

	err = p.TextSize(9, 1)
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "text_size")
	assert.Contains(t, err.Error(), "9")

	assert.ErrorIs(t, p.TextSize(1, 0), fault.ErrValidation)
	assert.ErrorIs(t, p.Align(escpos.Alignment(7)), fault.ErrValidation)
	assert.ErrorIs(t, p.Font(escpos.Font(7)), fault.ErrValidation)
	assert.ErrorIs(t, p.Underline(escpos.UnderlineMode(7)), fault.ErrValidation)

	assert.Equal(t, DefaultState(), p.State())
	m.AssertNumberOfCalls(t, "Write", 1)
}

func TestInitFailure(t *testing.T) {
	m := &MockTransport{}
	m.On("Write", mock.Anything).Return(0, errors.New("offline"))

	p, err := Open(m)
	require.NoError(t, err)

	err = p.Init()
	assert.ErrorIs(t, err, fault.ErrTransport)
	assert.False(t, p.Initialized())
}

func TestOperationsRequireInit(t *testing.T) {
	rec := &recordingTransport{}
	p, err := Open(rec)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Bold(true), ErrNotInitialized)
	assert.ErrorIs(t, p.Text("x"), fault.ErrValidation)
	assert.ErrorIs(t, p.QR(context.Background(), bridge.Value(command.QRDescriptor{})), ErrNotInitialized)
	assert.Empty(t, rec.data)
	assert.False(t, p.State().Bold)

	require.NoError(t, p.Flush(), "flush needs no init")
}

func TestFlushDelegatesToTransport(t *testing.T) {
	p, rec := openRecording(t)
	require.NoError(t, p.Flush())
	require.NoError(t, p.Flush())
	assert.Equal(t, 2, rec.flushes)

	m := &MockTransport{}
	m.On("Flush").Return(errors.New("reset by peer"))
	p, err := Open(m)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Flush(), fault.ErrTransport)
}

func TestOpenClaimsTransport(t *testing.T) {
	tr := transport.NewConsoleWithWriter(&bytes.Buffer{})

	_, err := Open(tr)
	require.NoError(t, err)

	_, err = Open(tr)
	assert.ErrorIs(t, err, transport.ErrAlreadyBound)
	assert.ErrorIs(t, err, fault.ErrTransport)

	_, err = Open(nil)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestOpenFileFailsEagerly(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "no", "such", "dir", "out.bin"))
	assert.ErrorIs(t, err, fault.ErrTransport)
}

func TestOpenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	p, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, p.Init())
	require.NoError(t, p.Bold(true))
	require.NoError(t, p.Print("x"))
	require.NoError(t, p.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1B, 0x40, 0x1B, 'E', 1, 'x'}, got)
}

func TestClose(t *testing.T) {
	p, rec := openRecording(t)
	require.NoError(t, p.Close())
	assert.True(t, rec.closed)
}
