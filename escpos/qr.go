package escpos

import (
	"errors"

	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// Defaults applied to unset QR fields.
const (
	DefaultQRModel = QRModel2
	DefaultQRSize  = 3
	DefaultQRLevel = QRLevelLow
)

// QR module size bounds.
const (
	MinQRSize = 1
	MaxQRSize = 16
)

// maxQRData is the largest payload the store function can address.
const maxQRData = 7089

// QR is a two-dimensional QR code. Unset fields take the encoder defaults;
// Text is required at encode time.
type QR struct {
	Size  opt.Option[uint8]
	Text  opt.Option[string]
	Model opt.Option[QRModel]
	Level opt.Option[QRCorrectionLevel]
}

// Encode renders the symbol with GS ( k: model, module size, correction
// level, store data, print.
func (q QR) Encode() ([]byte, error) {
	text, ok := q.Text.Get()
	if !ok || text == "" {
		return nil, fault.Contentf("qr", errors.New("text is required"))
	}
	if len(text) > maxQRData {
		return nil, fault.Invalid("qr", len(text), "payload exceeds %d bytes", maxQRData)
	}

	model := q.Model.Or(DefaultQRModel)
	if !model.Valid() {
		return nil, fault.Invalid("qr", model, "unknown model")
	}
	size := q.Size.Or(DefaultQRSize)
	if size < MinQRSize || size > MaxQRSize {
		return nil, fault.Invalid("qr", size, "size must be %d..%d", MinQRSize, MaxQRSize)
	}
	level := q.Level.Or(DefaultQRLevel)
	if !level.Valid() {
		return nil, fault.Invalid("qr", level, "unknown correction level")
	}

	var b []byte
	b = append(b, qrFunction(0x41, '1'+byte(model), 0x00)...)
	b = append(b, qrFunction(0x43, size)...)
	b = append(b, qrFunction(0x45, '0'+byte(level))...)
	store := append([]byte{'0'}, text...)
	b = append(b, qrFunction(0x50, store...)...)
	b = append(b, qrFunction(0x51, '0')...)
	return b, nil
}

// qrFunction frames one GS ( k function for the QR symbol (cn = 49).
func qrFunction(fn byte, params ...byte) []byte {
	n := len(params) + 2
	b := make([]byte, 0, n+5)
	b = append(b, GS, '(', 'k', byte(n), byte(n>>8), '1', fn)
	return append(b, params...)
}
