package command

import (
	"github.com/nixxel-company-limited/escpos-go/escpos"
	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// BarcodeBuilder accumulates the optional fields of a barcode.
type BarcodeBuilder struct {
	spec escpos.Barcode
	err  error
}

// NewBarcode returns a builder with every field unset.
func NewBarcode() *BarcodeBuilder {
	return &BarcodeBuilder{}
}

// Text sets the encoded payload.
func (b *BarcodeBuilder) Text(s string) *BarcodeBuilder {
	b.spec.Text = opt.Some(s)
	return b
}

// TextPosition sets where the human readable text is printed.
func (b *BarcodeBuilder) TextPosition(p escpos.BarcodeTextPosition) *BarcodeBuilder {
	if !p.Valid() {
		b.fail(fault.Invalid("barcode.text_position", p, "unknown text position"))
		return b
	}
	b.spec.TextPosition = opt.Some(p)
	return b
}

// System sets the symbology.
func (b *BarcodeBuilder) System(s escpos.BarcodeSystem) *BarcodeBuilder {
	if !s.Valid() {
		b.fail(fault.Invalid("barcode.system", s, "unknown system"))
		return b
	}
	b.spec.System = opt.Some(s)
	return b
}

// Font sets the font of the human readable text.
func (b *BarcodeBuilder) Font(f escpos.BarcodeFont) *BarcodeBuilder {
	if !f.Valid() {
		b.fail(fault.Invalid("barcode.font", f, "unknown font"))
		return b
	}
	b.spec.Font = opt.Some(f)
	return b
}

func (b *BarcodeBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build materializes the barcode command.
func (b *BarcodeBuilder) Build() (*Barcode, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Barcode{spec: b.spec}, nil
}

// Barcode is a materialized barcode command.
type Barcode struct {
	once
	spec escpos.Barcode
}

// Name implements Command.
func (c *Barcode) Name() string { return "barcode" }

// Spec returns a copy of the accumulated fields.
func (c *Barcode) Spec() escpos.Barcode { return c.spec }

// Encode implements Command.
func (c *Barcode) Encode() ([]byte, error) {
	if err := c.consume(c.Name()); err != nil {
		return nil, err
	}
	return c.spec.Encode()
}

// BarcodeDescriptor carries barcode fields produced outside the printer.
//
// Width and Height are accepted but never applied: the encoder does not
// take bar dimensions, so setting them has no effect on the output.
type BarcodeDescriptor struct {
	Width        opt.Option[uint8]                      `yaml:"width"`
	Height       opt.Option[uint8]                      `yaml:"height"`
	Text         opt.Option[string]                     `yaml:"text"`
	TextPosition opt.Option[escpos.BarcodeTextPosition] `yaml:"text_position"`
	System       opt.Option[escpos.BarcodeSystem]       `yaml:"system"`
	Font         opt.Option[escpos.BarcodeFont]         `yaml:"font"`
}

// Apply sets every present field of d on b, except Width and Height.
func (d BarcodeDescriptor) Apply(b *BarcodeBuilder) *BarcodeBuilder {
	d.Text.If(func(v string) { b.Text(v) })
	d.TextPosition.If(func(v escpos.BarcodeTextPosition) { b.TextPosition(v) })
	d.System.If(func(v escpos.BarcodeSystem) { b.System(v) })
	d.Font.If(func(v escpos.BarcodeFont) { b.Font(v) })
	return b
}
