package receipt

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-go/bridge"
	"github.com/nixxel-company-limited/escpos-go/command"
	"github.com/nixxel-company-limited/escpos-go/printer"
)

type action func(ctx context.Context, p *printer.Printer, dir string) error

// decoder turns a step argument into an action. arg is nil for bare steps.
type decoder func(arg *yaml.Node) (action, error)

type textSize struct {
	Width  uint8 `yaml:"width"`
	Height uint8 `yaml:"height"`
}

var operations = map[string]decoder{
	"init":               bare((*printer.Printer).Init),
	"reset":              bare((*printer.Printer).Reset),
	"align":              arg((*printer.Printer).Align),
	"left":               arg((*printer.Printer).Left),
	"width":              arg((*printer.Printer).Width),
	"font":               arg((*printer.Printer).Font),
	"bold":               arg((*printer.Printer).Bold),
	"text_size":          arg(func(p *printer.Printer, s textSize) error { return p.TextSize(s.Width, s.Height) }),
	"reset_text_size":    bare((*printer.Printer).ResetTextSize),
	"underline":          arg((*printer.Printer).Underline),
	"double_strike":      arg((*printer.Printer).DoubleStrike),
	"line_spacing":       arg((*printer.Printer).LineSpacing),
	"reset_line_spacing": bare((*printer.Printer).ResetLineSpacing),
	"flip":               arg((*printer.Printer).Flip),
	"reverse_colours":    arg((*printer.Printer).ReverseColours),
	"feed":               arg((*printer.Printer).Feed),
	"reverse_feed":       arg((*printer.Printer).ReverseFeed),
	"cut":                bare((*printer.Printer).Cut),
	"partial_cut":        bare((*printer.Printer).PartialCut),
	"print":              arg((*printer.Printer).Print),
	"println":            arg((*printer.Printer).Println),
	"text":               arg((*printer.Printer).Text),
	"qr":                 qrStep,
	"barcode":            barcodeStep,
	"graphic":            graphicStep,
}

// Operations lists the operation names a job may use.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bare(fn func(*printer.Printer) error) decoder {
	return func(n *yaml.Node) (action, error) {
		if !isNull(n) {
			return nil, errors.New("takes no argument")
		}
		return func(_ context.Context, p *printer.Printer, _ string) error {
			return fn(p)
		}, nil
	}
}

func arg[T any](fn func(*printer.Printer, T) error) decoder {
	return func(n *yaml.Node) (action, error) {
		if isNull(n) {
			return nil, errors.New("argument is required")
		}
		var v T
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return func(_ context.Context, p *printer.Printer, _ string) error {
			return fn(p, v)
		}, nil
	}
}

// descriptor decodes an optional mapping; a bare step yields the zero
// descriptor, which leaves every field unset.
func descriptor[D any](n *yaml.Node) (D, error) {
	var d D
	if isNull(n) {
		return d, nil
	}
	err := n.Decode(&d)
	return d, err
}

func qrStep(n *yaml.Node) (action, error) {
	d, err := descriptor[command.QRDescriptor](n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, p *printer.Printer, _ string) error {
		return p.QR(ctx, bridge.Value(d))
	}, nil
}

func barcodeStep(n *yaml.Node) (action, error) {
	d, err := descriptor[command.BarcodeDescriptor](n)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, p *printer.Printer, _ string) error {
		return p.Barcode(ctx, bridge.Value(d))
	}, nil
}

func graphicStep(n *yaml.Node) (action, error) {
	var d command.GraphicDescriptor
	if n != nil && n.Kind == yaml.ScalarNode && !isNull(n) {
		// graphic: logo.png
		d.Path = n.Value
	} else {
		var err error
		if d, err = descriptor[command.GraphicDescriptor](n); err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context, p *printer.Printer, dir string) error {
		g := d
		if g.Path != "" && dir != "" && !filepath.IsAbs(g.Path) {
			g.Path = filepath.Join(dir, g.Path)
		}
		return p.Graphic(ctx, bridge.Value(g))
	}, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}
