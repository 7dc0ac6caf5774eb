package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/gousb"

	"github.com/nixxel-company-limited/escpos-go/fault"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

// USBTransport writes to a USB printer-class device over its bulk OUT
// endpoint.
type USBTransport struct {
	binding
	ctx         *gousb.Context
	device      *gousb.Device
	config      *gousb.Config
	iface       *gousb.Interface
	outEndpoint *gousb.OutEndpoint
	logger      *slog.Logger
}

// OpenUSB opens the device with the given vendor and product IDs. When no
// such device is present it falls back to the first printer found.
func OpenUSB(vid, pid uint16, opts ...Option) (*USBTransport, error) {
	o := buildOptions(opts)
	ctx := gousb.NewContext()

	device, err := GetDeviceByVIDPID(ctx, vid, pid)
	if err != nil {
		o.logger.Debug("usb printer not found by id, falling back to discovery", "vid", vid, "pid", pid, "err", err)
		devices := FindPrinters(ctx, o.logger)
		if len(devices) == 0 {
			ctx.Close()
			return nil, fault.Transportf("open usb", fmt.Errorf("cannot find printer %04x:%04x", vid, pid))
		}
		closeAllBut(devices, 0)
		device = devices[0]
	}
	return claimUSB(ctx, device, o.logger)
}

// OpenUSBAuto opens the first USB printer found.
func OpenUSBAuto(opts ...Option) (*USBTransport, error) {
	o := buildOptions(opts)
	ctx := gousb.NewContext()

	devices := FindPrinters(ctx, o.logger)
	if len(devices) == 0 {
		ctx.Close()
		return nil, fault.Transportf("open usb", errors.New("cannot find printer"))
	}
	closeAllBut(devices, 0)
	return claimUSB(ctx, devices[0], o.logger)
}

// OpenUSBBySerial opens the printer with the given serial number.
func OpenUSBBySerial(serial string, opts ...Option) (*USBTransport, error) {
	o := buildOptions(opts)
	ctx := gousb.NewContext()

	device, err := GetDeviceBySerial(ctx, serial)
	if err != nil {
		ctx.Close()
		return nil, fault.Transportf("open usb", err)
	}
	return claimUSB(ctx, device, o.logger)
}

// claimUSB claims the printer interface and its OUT endpoint. On failure the
// device and context are released.
func claimUSB(ctx *gousb.Context, device *gousb.Device, logger *slog.Logger) (*USBTransport, error) {
	t := &USBTransport{
		ctx:    ctx,
		device: device,
		logger: logger.With("transport", "usb", "device", device.Desc.String()),
	}
	if err := t.claim(); err != nil {
		t.release()
		return nil, fault.Transportf("open usb", err)
	}
	t.logger.Debug("usb transport opened")
	return t, nil
}

func (t *USBTransport) claim() error {
	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		if err := t.device.SetAutoDetach(true); err != nil {
			t.logger.Warn("failed to enable kernel driver auto-detach", "err", err)
		}
	}

	cfgNum, err := t.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	cfg, err := t.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	t.config = cfg

	printerIfaceNum := -1
	for _, iface := range cfg.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				printerIfaceNum = iface.Number
				break
			}
		}
		if printerIfaceNum >= 0 {
			break
		}
	}
	if printerIfaceNum < 0 {
		return errors.New("no printer interface found")
	}

	iface, err := cfg.Interface(printerIfaceNum, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface: %w", err)
	}
	t.iface = iface

	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		ep, err := iface.OutEndpoint(epDesc.Number)
		if err == nil {
			t.outEndpoint = ep
			break
		}
	}
	if t.outEndpoint == nil {
		return errors.New("cannot find output endpoint from printer")
	}
	return nil
}

// Write sends data on the bulk OUT endpoint.
func (t *USBTransport) Write(data []byte) (int, error) {
	if t.outEndpoint == nil {
		return 0, errors.New("usb transport closed")
	}
	n, err := t.outEndpoint.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	if n < len(data) {
		return n, fmt.Errorf("write failed: short write %d of %d bytes", n, len(data))
	}
	return n, nil
}

// Flush is a no-op: bulk transfers are not buffered on the host side.
func (t *USBTransport) Flush() error {
	return nil
}

// Close releases the interface, configuration, device and context.
func (t *USBTransport) Close() error {
	if t.ctx == nil {
		return nil
	}
	err := t.release()
	t.logger.Debug("usb transport closed")
	return err
}

func (t *USBTransport) release() error {
	var errs []error

	if t.iface != nil {
		t.iface.Close()
		t.iface = nil
	}
	t.outEndpoint = nil

	if t.config != nil {
		if err := t.config.Close(); err != nil {
			errs = append(errs, err)
		}
		t.config = nil
	}

	if t.device != nil {
		if err := t.device.Close(); err != nil {
			errs = append(errs, err)
		}
		t.device = nil
	}

	if t.ctx != nil {
		if err := t.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		t.ctx = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// Device returns the underlying USB device, or nil once closed.
func (t *USBTransport) Device() *gousb.Device {
	return t.device
}

// IsPrinter checks if a device exposes a printer-class interface.
func IsPrinter(dev *gousb.Device) bool {
	if dev == nil {
		return false
	}

	cfg, err := dev.ActiveConfigNum()
	if err != nil {
		return false
	}

	cfgDesc, err := dev.Config(cfg)
	if err != nil {
		return false
	}
	defer cfgDesc.Close()

	for _, iface := range cfgDesc.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return true
			}
		}
	}

	return false
}

// FindPrinters returns all USB printer devices. Devices that are not
// printers are closed.
func FindPrinters(ctx *gousb.Context, logger *slog.Logger) []*gousb.Device {
	printers := []*gousb.Device{}

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil {
		logger.Debug("usb enumeration incomplete", "err", err)
	}

	for _, dev := range devices {
		if IsPrinter(dev) {
			logger.Debug("found usb printer", "device", dev.Desc.String())
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

// GetDeviceByVIDPID opens a device by VID and PID.
func GetDeviceByVIDPID(ctx *gousb.Context, vid, pid uint16) (*gousb.Device, error) {
	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, errors.New("device not found")
	}
	return device, nil
}

// GetDeviceBySerial opens a device by serial number.
func GetDeviceBySerial(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil && len(devices) == 0 {
		return nil, err
	}

	for i, dev := range devices {
		s, err := dev.SerialNumber()
		if err == nil && s == serial {
			closeAllBut(devices, i)
			return dev, nil
		}
	}
	closeAllBut(devices, -1)

	return nil, errors.New("device with serial number not found")
}

func closeAllBut(devices []*gousb.Device, keep int) {
	for i, d := range devices {
		if i != keep {
			d.Close()
		}
	}
}

var _ Transport = (*USBTransport)(nil)
