// Package command builds the structured printer commands: QR codes,
// barcodes and raster graphics.
//
// A builder starts with every optional field unset. Setters check only the
// type range of their argument; the first failure is kept and reported by
// Build. Build materializes an immutable Command. Fields that were never set
// stay unset in the command, so the encoder applies its own defaults.
package command

import (
	"errors"
	"sync/atomic"

	"github.com/nixxel-company-limited/escpos-go/fault"
)

// ErrConsumed is returned when a command is encoded a second time.
var ErrConsumed = errors.New("command already consumed")

// Command is a materialized structured command. It is consumed exactly once:
// the first Encode returns its bytes, later calls fail.
type Command interface {
	// Name is the operation name used in errors and logs.
	Name() string
	// Encode lowers the command to protocol bytes.
	Encode() ([]byte, error)
}

// once guards single consumption of a command.
type once struct {
	used atomic.Bool
}

func (o *once) consume(name string) error {
	if o.used.Swap(true) {
		return fault.Contentf(name, ErrConsumed)
	}
	return nil
}
