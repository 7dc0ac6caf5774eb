// Package printer drives a receipt printer over a transport.
//
// A Printer mirrors the formatting state it has sent to the device. Every
// mutator validates its input, encodes the command, writes it and only then
// updates the mirrored state, so a failed call leaves the state untouched.
//
// A Printer has no internal lock. It may be moved between goroutines, but
// its methods must not be called concurrently: callers serialize access
// (single-writer discipline).
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nixxel-company-limited/escpos-go/bridge"
	"github.com/nixxel-company-limited/escpos-go/command"
	"github.com/nixxel-company-limited/escpos-go/escpos"
	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
	"github.com/nixxel-company-limited/escpos-go/transport"
)

// ErrNotInitialized is returned by operations issued before Init.
var ErrNotInitialized = errors.New("printer not initialized, call Init first")

// State is the formatting state mirrored from the last successful mutators.
type State struct {
	Alignment      escpos.Alignment
	Font           escpos.Font
	Bold           bool
	Underline      escpos.UnderlineMode
	DoubleStrike   bool
	LineSpacing    opt.Option[uint8] // None means the printer default spacing.
	Flip           bool
	ReverseColours bool
	LeftMargin     uint16
	PrintWidth     opt.Option[uint16] // None means the full printable width.
	TextWidth      uint8
	TextHeight     uint8
}

// DefaultState is the state right after Init.
func DefaultState() State {
	return State{
		TextWidth:  1,
		TextHeight: 1,
	}
}

// Option configures a Printer.
type Option func(*Printer)

// WithLogger sets the printer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Printer) {
		if l != nil {
			p.logger = l
		}
	}
}

// Printer composes printer commands and writes them to its transport.
type Printer struct {
	t           transport.Transport
	state       State
	initialized bool
	logger      *slog.Logger
}

// Open binds t to a new Printer. The printer takes ownership of t; a
// transport that has already been bound is rejected.
func Open(t transport.Transport, opts ...Option) (*Printer, error) {
	if t == nil {
		return nil, fault.Invalid("open", nil, "transport is nil")
	}
	if c, ok := t.(transport.Claimer); ok {
		if err := c.Claim(); err != nil {
			return nil, fault.Transportf("open", err)
		}
	}

	p := &Printer{
		t:      t,
		state:  DefaultState(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// OpenFile opens a file transport at path and binds it to a new Printer.
func OpenFile(path string, opts ...Option) (*Printer, error) {
	t, err := transport.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return Open(t, opts...)
}

// OpenNetwork connects to host:port and binds the connection to a new
// Printer.
func OpenNetwork(host string, port uint16, opts ...Option) (*Printer, error) {
	t, err := transport.OpenNetwork(host, port)
	if err != nil {
		return nil, err
	}
	return Open(t, opts...)
}

// OpenConsole binds standard output to a new Printer.
func OpenConsole(opts ...Option) (*Printer, error) {
	return Open(transport.OpenConsole(), opts...)
}

// State returns a copy of the mirrored formatting state.
func (p *Printer) State() State {
	return p.state
}

// Initialized reports whether Init has succeeded.
func (p *Printer) Initialized() bool {
	return p.initialized
}

// Init resets the printer to its power-on defaults. It must be the first
// operation after Open.
func (p *Printer) Init() error {
	if err := p.write("init", escpos.Init()); err != nil {
		p.logger.Error("printer init failed", "err", err)
		return err
	}
	p.state = DefaultState()
	p.initialized = true
	return nil
}

// Reset restores default formatting without re-initializing the printer.
// Margins and print width are kept.
func (p *Printer) Reset() error {
	if err := p.emit("reset", escpos.Reset()); err != nil {
		return err
	}
	left, width := p.state.LeftMargin, p.state.PrintWidth
	p.state = DefaultState()
	p.state.LeftMargin, p.state.PrintWidth = left, width
	return nil
}

// Align sets line justification.
func (p *Printer) Align(a escpos.Alignment) error {
	b, err := escpos.Align(a)
	if err != nil {
		return err
	}
	if err := p.emit("align", b); err != nil {
		return err
	}
	p.state.Alignment = a
	return nil
}

// Left sets the left margin in dots.
func (p *Printer) Left(dots uint16) error {
	if err := p.emit("left", escpos.LeftMargin(dots)); err != nil {
		return err
	}
	p.state.LeftMargin = dots
	return nil
}

// Width sets the printable area width in dots.
func (p *Printer) Width(dots uint16) error {
	if err := p.emit("width", escpos.PrintWidth(dots)); err != nil {
		return err
	}
	p.state.PrintWidth = opt.Some(dots)
	return nil
}

// Font selects a character font.
func (p *Printer) Font(f escpos.Font) error {
	b, err := escpos.SelectFont(f)
	if err != nil {
		return err
	}
	if err := p.emit("font", b); err != nil {
		return err
	}
	p.state.Font = f
	return nil
}

// Bold turns emphasized printing on or off.
func (p *Printer) Bold(on bool) error {
	if err := p.emit("bold", escpos.Bold(on)); err != nil {
		return err
	}
	p.state.Bold = on
	return nil
}

// TextSize sets the character width and height multipliers, each 1..8.
func (p *Printer) TextSize(width, height uint8) error {
	b, err := escpos.TextSize(width, height)
	if err != nil {
		return err
	}
	if err := p.emit("text_size", b); err != nil {
		return err
	}
	p.state.TextWidth, p.state.TextHeight = width, height
	return nil
}

// ResetTextSize restores 1x1 characters.
func (p *Printer) ResetTextSize() error {
	if err := p.emit("reset_text_size", escpos.ResetTextSize()); err != nil {
		return err
	}
	p.state.TextWidth, p.state.TextHeight = 1, 1
	return nil
}

// Underline sets the underline mode.
func (p *Printer) Underline(mode escpos.UnderlineMode) error {
	b, err := escpos.Underline(mode)
	if err != nil {
		return err
	}
	if err := p.emit("underline", b); err != nil {
		return err
	}
	p.state.Underline = mode
	return nil
}

// DoubleStrike turns double-strike printing on or off.
func (p *Printer) DoubleStrike(on bool) error {
	if err := p.emit("doublestrike", escpos.DoubleStrike(on)); err != nil {
		return err
	}
	p.state.DoubleStrike = on
	return nil
}

// LineSpacing sets the line spacing in motion units.
func (p *Printer) LineSpacing(height uint8) error {
	if err := p.emit("linespacing", escpos.LineSpacing(height)); err != nil {
		return err
	}
	p.state.LineSpacing = opt.Some(height)
	return nil
}

// ResetLineSpacing restores the printer's default line spacing.
func (p *Printer) ResetLineSpacing() error {
	if err := p.emit("reset_linespacing", escpos.ResetLineSpacing()); err != nil {
		return err
	}
	p.state.LineSpacing = opt.None[uint8]()
	return nil
}

// Flip turns upside-down printing on or off.
func (p *Printer) Flip(on bool) error {
	if err := p.emit("flip", escpos.Flip(on)); err != nil {
		return err
	}
	p.state.Flip = on
	return nil
}

// ReverseColours turns white-on-black printing on or off.
func (p *Printer) ReverseColours(on bool) error {
	if err := p.emit("reverse_colours", escpos.Reverse(on)); err != nil {
		return err
	}
	p.state.ReverseColours = on
	return nil
}

// Feed advances the paper n lines. Zero is a no-op.
func (p *Printer) Feed(n uint8) error {
	return p.emit("feed", escpos.Feed(n))
}

// ReverseFeed retracts the paper n lines. Zero is a no-op.
func (p *Printer) ReverseFeed(n uint8) error {
	return p.emit("reverse_feed", escpos.ReverseFeed(n))
}

// Cut performs a full cut.
func (p *Printer) Cut() error {
	return p.emit("cut", escpos.Cut())
}

// PartialCut performs a cut that leaves a connecting strip.
func (p *Printer) PartialCut() error {
	return p.emit("partial_cut", escpos.PartialCut())
}

// Print writes text without a line terminator.
func (p *Printer) Print(text string) error {
	return p.emit("print", escpos.Text(text))
}

// Println writes text followed by a line terminator.
func (p *Printer) Println(text string) error {
	return p.emit("println", escpos.Line(text))
}

// Text is Println under another name; both produce identical bytes.
func (p *Printer) Text(text string) error {
	return p.emit("text", escpos.Line(text))
}

// QR awaits a descriptor from produce, builds the QR code and writes it.
// produce is invoked exactly once. If ctx ends before the descriptor
// arrives, nothing is written.
func (p *Printer) QR(ctx context.Context, produce bridge.Producer[command.QRDescriptor]) error {
	if err := p.ready("qr"); err != nil {
		return err
	}
	d, err := bridge.Resolve(ctx, produce)
	if err != nil {
		return producerError("qr", err)
	}
	cmd, err := d.Apply(command.NewQR()).Build()
	if err != nil {
		return err
	}
	return p.Emit(cmd)
}

// Barcode awaits a descriptor from produce, builds the barcode and writes it.
// The descriptor's width and height are not applied.
func (p *Printer) Barcode(ctx context.Context, produce bridge.Producer[command.BarcodeDescriptor]) error {
	if err := p.ready("barcode"); err != nil {
		return err
	}
	d, err := bridge.Resolve(ctx, produce)
	if err != nil {
		return producerError("barcode", err)
	}
	cmd, err := d.Apply(command.NewBarcode()).Build()
	if err != nil {
		return err
	}
	return p.Emit(cmd)
}

// Graphic awaits a descriptor from produce, loads the image and writes it.
func (p *Printer) Graphic(ctx context.Context, produce bridge.Producer[command.GraphicDescriptor]) error {
	if err := p.ready("graphic"); err != nil {
		return err
	}
	d, err := bridge.Resolve(ctx, produce)
	if err != nil {
		return producerError("graphic", err)
	}
	cmd, err := d.Apply(command.NewGraphic()).Build()
	if err != nil {
		return err
	}
	return p.Emit(cmd)
}

// Emit encodes a materialized command and writes it. The command is
// consumed: emitting it again fails with a content error.
func (p *Printer) Emit(cmd command.Command) error {
	if err := p.ready(cmd.Name()); err != nil {
		return err
	}
	b, err := cmd.Encode()
	if err != nil {
		p.logger.Debug("command rejected by encoder", "op", cmd.Name(), "err", err)
		return err
	}
	return p.write(cmd.Name(), b)
}

// Flush forces delivery of anything the transport buffers.
func (p *Printer) Flush() error {
	if err := p.t.Flush(); err != nil {
		return fault.Transportf("flush", err)
	}
	return nil
}

// Close flushes and releases the transport.
func (p *Printer) Close() error {
	if err := p.t.Close(); err != nil {
		return fault.Transportf("close", err)
	}
	return nil
}

func (p *Printer) ready(op string) error {
	if !p.initialized {
		return &fault.Error{Kind: fault.Validation, Op: op, Err: ErrNotInitialized}
	}
	return nil
}

func (p *Printer) emit(op string, b []byte) error {
	if err := p.ready(op); err != nil {
		return err
	}
	return p.write(op, b)
}

func (p *Printer) write(op string, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := p.t.Write(b); err != nil {
		p.logger.Debug("transport write failed", "op", op, "err", err)
		return fault.Transportf(op, err)
	}
	return nil
}

// producerError keeps context errors recognizable and classifies every
// other producer failure as content that could not be produced.
func producerError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fault.Contentf(op, fmt.Errorf("producer: %w", err))
}
