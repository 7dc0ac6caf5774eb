package escpos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// Defaults applied to unset barcode fields.
const (
	DefaultBarcodeSystem       = Code39
	DefaultBarcodeTextPosition = HRIBelow
	DefaultBarcodeFont         = BarcodeFontA
)

// Barcode is a one-dimensional barcode. Unset fields take the encoder
// defaults; Text is required at encode time.
type Barcode struct {
	Text         opt.Option[string]
	TextPosition opt.Option[BarcodeTextPosition]
	System       opt.Option[BarcodeSystem]
	Font         opt.Option[BarcodeFont]
}

// Encode renders GS H (HRI position), GS f (HRI font) and GS k in function
// B form (m = 65..71, explicit length).
func (bc Barcode) Encode() ([]byte, error) {
	text, ok := bc.Text.Get()
	if !ok || text == "" {
		return nil, fault.Contentf("barcode", errors.New("text is required"))
	}

	pos := bc.TextPosition.Or(DefaultBarcodeTextPosition)
	if !pos.Valid() {
		return nil, fault.Invalid("barcode", pos, "unknown text position")
	}
	font := bc.Font.Or(DefaultBarcodeFont)
	if !font.Valid() {
		return nil, fault.Invalid("barcode", font, "unknown font")
	}
	system := bc.System.Or(DefaultBarcodeSystem)
	if !system.Valid() {
		return nil, fault.Invalid("barcode", system, "unknown system")
	}
	if err := validateBarcodeData(system, text); err != nil {
		return nil, fault.Contentf("barcode", err)
	}
	if len(text) > 255 {
		return nil, fault.Invalid("barcode", len(text), "payload exceeds 255 bytes")
	}

	var b []byte
	b = append(b, GS, 'H', byte(pos))
	b = append(b, GS, 'f', byte(font))
	b = append(b, GS, 'k', 65+byte(system), byte(len(text)))
	b = append(b, text...)
	return b, nil
}

const (
	code39Charset  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./"
	codabarCharset = "0123456789ABCDabcd$+-./:"
)

func validateBarcodeData(system BarcodeSystem, text string) error {
	switch system {
	case UPCA:
		return digitsWithin(system, text, 11, 12)
	case UPCE:
		if err := digitsWithin(system, text, 6, 8); err == nil {
			return nil
		}
		return digitsWithin(system, text, 11, 12)
	case EAN13:
		return digitsWithin(system, text, 12, 13)
	case EAN8:
		return digitsWithin(system, text, 7, 8)
	case Code39:
		return charsetOnly(system, text, code39Charset)
	case ITF:
		if len(text)%2 != 0 {
			return fmt.Errorf("%s requires an even number of digits, got %d", system, len(text))
		}
		return charsetOnly(system, text, "0123456789")
	case Codabar:
		return charsetOnly(system, text, codabarCharset)
	}
	return nil
}

func digitsWithin(system BarcodeSystem, text string, min, max int) error {
	if len(text) < min || len(text) > max {
		return fmt.Errorf("%s requires %d to %d digits, got %d", system, min, max, len(text))
	}
	return charsetOnly(system, text, "0123456789")
}

func charsetOnly(system BarcodeSystem, text, charset string) error {
	for _, r := range text {
		if !strings.ContainsRune(charset, r) {
			return fmt.Errorf("%s does not encode %q", system, r)
		}
	}
	return nil
}
