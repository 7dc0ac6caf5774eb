package escpos

import (
	"fmt"
	"strings"
)

// Alignment is the horizontal justification of printed lines.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Font selects one of the printer's resident character fonts.
type Font uint8

const (
	FontA Font = iota
	FontB
	FontC
)

// UnderlineMode is the underline stroke weight.
type UnderlineMode uint8

const (
	UnderlineNone UnderlineMode = iota
	UnderlineSingle
	UnderlineDouble
)

// QRModel selects the QR symbol model.
type QRModel uint8

const (
	QRModel1 QRModel = iota
	QRModel2
)

// QRCorrectionLevel is the QR error correction level.
type QRCorrectionLevel uint8

const (
	QRLevelLow QRCorrectionLevel = iota
	QRLevelMedium
	QRLevelQuartile
	QRLevelHigh
)

// BarcodeSystem is a one-dimensional barcode symbology.
type BarcodeSystem uint8

const (
	UPCA BarcodeSystem = iota
	UPCE
	EAN13
	EAN8
	Code39
	ITF
	Codabar
)

// BarcodeTextPosition is where the human readable interpretation is printed.
type BarcodeTextPosition uint8

const (
	HRINone BarcodeTextPosition = iota
	HRIAbove
	HRIBelow
	HRIBoth
)

// BarcodeFont is the font used for the human readable interpretation.
type BarcodeFont uint8

const (
	BarcodeFontA BarcodeFont = iota
	BarcodeFontB
)

// GraphicSize is the raster scaling mode.
type GraphicSize uint8

const (
	GraphicNormal GraphicSize = iota
	GraphicDoubleWidth
	GraphicDoubleHeight
	GraphicDoubleWidthAndHeight
)

var (
	alignmentNames     = []string{"left", "center", "right"}
	fontNames          = []string{"a", "b", "c"}
	underlineNames     = []string{"none", "single", "double"}
	qrModelNames       = []string{"model1", "model2"}
	qrLevelNames       = []string{"low", "medium", "quartile", "high"}
	barcodeSystemNames = []string{"upca", "upce", "ean13", "ean8", "code39", "itf", "codabar"}
	hriNames           = []string{"none", "above", "below", "both"}
	barcodeFontNames   = []string{"a", "b"}
	graphicSizeNames   = []string{"normal", "double_width", "double_height", "double_width_and_height"}
)

func enumString(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum(kind string, names []string, text []byte) (uint8, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	for i, name := range names {
		if s == name || s == strings.ReplaceAll(name, "_", "") {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %s)", kind, text, strings.Join(names, ", "))
}

func (a Alignment) String() string { return enumString(alignmentNames, uint8(a)) }

// Valid reports whether a is a known alignment.
func (a Alignment) Valid() bool { return int(a) < len(alignmentNames) }

// UnmarshalText parses an alignment name.
func (a *Alignment) UnmarshalText(text []byte) error {
	v, err := parseEnum("alignment", alignmentNames, text)
	if err != nil {
		return err
	}
	*a = Alignment(v)
	return nil
}

func (f Font) String() string { return enumString(fontNames, uint8(f)) }

// Valid reports whether f is a known font.
func (f Font) Valid() bool { return int(f) < len(fontNames) }

// UnmarshalText parses a font name.
func (f *Font) UnmarshalText(text []byte) error {
	v, err := parseEnum("font", fontNames, text)
	if err != nil {
		return err
	}
	*f = Font(v)
	return nil
}

func (u UnderlineMode) String() string { return enumString(underlineNames, uint8(u)) }

// Valid reports whether u is a known underline mode.
func (u UnderlineMode) Valid() bool { return int(u) < len(underlineNames) }

// UnmarshalText parses an underline mode name.
func (u *UnderlineMode) UnmarshalText(text []byte) error {
	v, err := parseEnum("underline mode", underlineNames, text)
	if err != nil {
		return err
	}
	*u = UnderlineMode(v)
	return nil
}

func (m QRModel) String() string { return enumString(qrModelNames, uint8(m)) }

// Valid reports whether m is a known QR model.
func (m QRModel) Valid() bool { return int(m) < len(qrModelNames) }

// UnmarshalText parses a QR model name.
func (m *QRModel) UnmarshalText(text []byte) error {
	v, err := parseEnum("qr model", qrModelNames, text)
	if err != nil {
		return err
	}
	*m = QRModel(v)
	return nil
}

func (l QRCorrectionLevel) String() string { return enumString(qrLevelNames, uint8(l)) }

// Valid reports whether l is a known correction level.
func (l QRCorrectionLevel) Valid() bool { return int(l) < len(qrLevelNames) }

// UnmarshalText parses a correction level name.
func (l *QRCorrectionLevel) UnmarshalText(text []byte) error {
	v, err := parseEnum("qr correction level", qrLevelNames, text)
	if err != nil {
		return err
	}
	*l = QRCorrectionLevel(v)
	return nil
}

func (s BarcodeSystem) String() string { return enumString(barcodeSystemNames, uint8(s)) }

// Valid reports whether s is a known symbology.
func (s BarcodeSystem) Valid() bool { return int(s) < len(barcodeSystemNames) }

// UnmarshalText parses a symbology name.
func (s *BarcodeSystem) UnmarshalText(text []byte) error {
	v, err := parseEnum("barcode system", barcodeSystemNames, text)
	if err != nil {
		return err
	}
	*s = BarcodeSystem(v)
	return nil
}

func (p BarcodeTextPosition) String() string { return enumString(hriNames, uint8(p)) }

// Valid reports whether p is a known text position.
func (p BarcodeTextPosition) Valid() bool { return int(p) < len(hriNames) }

// UnmarshalText parses a text position name.
func (p *BarcodeTextPosition) UnmarshalText(text []byte) error {
	v, err := parseEnum("barcode text position", hriNames, text)
	if err != nil {
		return err
	}
	*p = BarcodeTextPosition(v)
	return nil
}

func (f BarcodeFont) String() string { return enumString(barcodeFontNames, uint8(f)) }

// Valid reports whether f is a known barcode font.
func (f BarcodeFont) Valid() bool { return int(f) < len(barcodeFontNames) }

// UnmarshalText parses a barcode font name.
func (f *BarcodeFont) UnmarshalText(text []byte) error {
	v, err := parseEnum("barcode font", barcodeFontNames, text)
	if err != nil {
		return err
	}
	*f = BarcodeFont(v)
	return nil
}

func (g GraphicSize) String() string { return enumString(graphicSizeNames, uint8(g)) }

// Valid reports whether g is a known graphic size.
func (g GraphicSize) Valid() bool { return int(g) < len(graphicSizeNames) }

// UnmarshalText parses a graphic size name.
func (g *GraphicSize) UnmarshalText(text []byte) error {
	v, err := parseEnum("graphic size", graphicSizeNames, text)
	if err != nil {
		return err
	}
	*g = GraphicSize(v)
	return nil
}
