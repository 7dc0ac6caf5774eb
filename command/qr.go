package command

import (
	"github.com/nixxel-company-limited/escpos-go/escpos"
	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// QRBuilder accumulates the optional fields of a QR code.
type QRBuilder struct {
	spec escpos.QR
	err  error
}

// NewQR returns a builder with every field unset.
func NewQR() *QRBuilder {
	return &QRBuilder{}
}

// Size sets the module size in dots (1..16).
func (b *QRBuilder) Size(n uint8) *QRBuilder {
	if n < escpos.MinQRSize || n > escpos.MaxQRSize {
		b.fail(fault.Invalid("qr.size", n, "size must be %d..%d", escpos.MinQRSize, escpos.MaxQRSize))
		return b
	}
	b.spec.Size = opt.Some(n)
	return b
}

// Text sets the encoded payload.
func (b *QRBuilder) Text(s string) *QRBuilder {
	b.spec.Text = opt.Some(s)
	return b
}

// Model sets the symbol model.
func (b *QRBuilder) Model(m escpos.QRModel) *QRBuilder {
	if !m.Valid() {
		b.fail(fault.Invalid("qr.model", m, "unknown model"))
		return b
	}
	b.spec.Model = opt.Some(m)
	return b
}

// CorrectionLevel sets the error correction level.
func (b *QRBuilder) CorrectionLevel(l escpos.QRCorrectionLevel) *QRBuilder {
	if !l.Valid() {
		b.fail(fault.Invalid("qr.correction_level", l, "unknown correction level"))
		return b
	}
	b.spec.Level = opt.Some(l)
	return b
}

func (b *QRBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build materializes the QR command. Text is not required here; the encoder
// checks it when the command is lowered.
func (b *QRBuilder) Build() (*QR, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &QR{spec: b.spec}, nil
}

// QR is a materialized QR code command.
type QR struct {
	once
	spec escpos.QR
}

// Name implements Command.
func (q *QR) Name() string { return "qr" }

// Spec returns a copy of the accumulated fields.
func (q *QR) Spec() escpos.QR { return q.spec }

// Encode implements Command.
func (q *QR) Encode() ([]byte, error) {
	if err := q.consume(q.Name()); err != nil {
		return nil, err
	}
	return q.spec.Encode()
}

// QRDescriptor carries QR fields produced outside the printer, typically by
// an asynchronous producer. Absent fields are not applied.
type QRDescriptor struct {
	Size  opt.Option[uint8]                    `yaml:"size"`
	Text  opt.Option[string]                   `yaml:"text"`
	Model opt.Option[escpos.QRModel]           `yaml:"model"`
	Level opt.Option[escpos.QRCorrectionLevel] `yaml:"level"`
}

// Apply sets every present field of d on b.
func (d QRDescriptor) Apply(b *QRBuilder) *QRBuilder {
	d.Size.If(func(v uint8) { b.Size(v) })
	d.Text.If(func(v string) { b.Text(v) })
	d.Model.If(func(v escpos.QRModel) { b.Model(v) })
	d.Level.If(func(v escpos.QRCorrectionLevel) { b.CorrectionLevel(v) })
	return b
}
