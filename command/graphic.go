package command

import (
	"github.com/nixxel-company-limited/escpos-go/escpos"
	"github.com/nixxel-company-limited/escpos-go/fault"
	"github.com/nixxel-company-limited/escpos-go/opt"
)

// GraphicBuilder accumulates the fields of a raster graphic. Path is
// required; size and max width are optional.
type GraphicBuilder struct {
	spec escpos.Graphic
	err  error
}

// NewGraphic returns a builder with no path and every optional field unset.
func NewGraphic() *GraphicBuilder {
	return &GraphicBuilder{}
}

// Path sets the image file to print.
func (b *GraphicBuilder) Path(p string) *GraphicBuilder {
	b.spec.Path = p
	return b
}

// Size sets the raster scaling mode.
func (b *GraphicBuilder) Size(s escpos.GraphicSize) *GraphicBuilder {
	if !s.Valid() {
		b.fail(fault.Invalid("graphic.size", s, "unknown size"))
		return b
	}
	b.spec.Size = opt.Some(s)
	return b
}

// MaxWidth sets the widest raster, in dots, the image is scaled down to.
func (b *GraphicBuilder) MaxWidth(dots uint32) *GraphicBuilder {
	if dots == 0 {
		b.fail(fault.Invalid("graphic.max_width", dots, "max width must be positive"))
		return b
	}
	b.spec.MaxWidth = opt.Some(dots)
	return b
}

func (b *GraphicBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build materializes the graphic command. The image itself is only read
// when the command is encoded.
func (b *GraphicBuilder) Build() (*Graphic, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.spec.Path == "" {
		return nil, fault.Invalid("graphic.path", b.spec.Path, "path is required")
	}
	return &Graphic{spec: b.spec}, nil
}

// Graphic is a materialized raster graphic command.
type Graphic struct {
	once
	spec escpos.Graphic
}

// Name implements Command.
func (g *Graphic) Name() string { return "graphic" }

// Spec returns a copy of the accumulated fields.
func (g *Graphic) Spec() escpos.Graphic { return g.spec }

// Encode implements Command.
func (g *Graphic) Encode() ([]byte, error) {
	if err := g.consume(g.Name()); err != nil {
		return nil, err
	}
	return g.spec.Encode()
}

// GraphicDescriptor carries graphic fields produced outside the printer.
type GraphicDescriptor struct {
	Path     string                         `yaml:"path"`
	Size     opt.Option[escpos.GraphicSize] `yaml:"size"`
	MaxWidth opt.Option[uint32]             `yaml:"max_width"`
}

// Apply sets the path and every present optional field of d on b.
func (d GraphicDescriptor) Apply(b *GraphicBuilder) *GraphicBuilder {
	b.Path(d.Path)
	d.Size.If(func(v escpos.GraphicSize) { b.Size(v) })
	d.MaxWidth.If(func(v uint32) { b.MaxWidth(v) })
	return b
}
