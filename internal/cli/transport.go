package cli

import (
	"fmt"
	"log/slog"

	"github.com/nixxel-company-limited/escpos-go/internal/config"
	"github.com/nixxel-company-limited/escpos-go/transport"
)

// openTransport opens the transport selected by cfg.
func openTransport(cfg config.TransportConfig, log *slog.Logger) (transport.Transport, error) {
	opts := []transport.Option{transport.WithLogger(log)}

	switch cfg.Kind {
	case config.TransportConsole:
		t := transport.OpenConsole(opts...)
		if t.IsTerminal() {
			log.Warn("console transport is a terminal, printer control bytes will be shown raw")
		}
		return t, nil
	case config.TransportFile:
		return transport.OpenFile(cfg.Path, opts...)
	case config.TransportNetwork:
		return transport.OpenNetwork(cfg.Host, cfg.Port, opts...)
	case config.TransportUSB:
		switch {
		case cfg.USB.Serial != "":
			return transport.OpenUSBBySerial(cfg.USB.Serial, opts...)
		case cfg.USB.VID != 0 || cfg.USB.PID != 0:
			return transport.OpenUSB(cfg.USB.VID, cfg.USB.PID, opts...)
		default:
			return transport.OpenUSBAuto(opts...)
		}
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}
