// Package indicator drives the kitchen lights, buzzer and display that mirror
// the oven state.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Light identifies one of the indicator LEDs.
type Light int

const (
	LightRed Light = iota
	LightYellow
	LightGreen
)

// Lights lists every LED in pin order.
var Lights = []Light{LightRed, LightYellow, LightGreen}

func (l Light) String() string {
	switch l {
	case LightRed:
		return "red"
	case LightYellow:
		return "yellow"
	case LightGreen:
		return "green"
	}
	return fmt.Sprintf("light(%d)", int(l))
}

// Device is the output capability of an indicator board.
type Device interface {
	SetLight(light Light, on bool) error
	SetBuzzer(on bool) error
	Display(text string) error
}

// DeviceError wraps a failed device write.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("indicator device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// LogDevice is a simulated board that writes every output change to the log.
type LogDevice struct {
	logger *slog.Logger
}

// NewLogDevice creates a LogDevice.
func NewLogDevice(logger *slog.Logger) *LogDevice {
	return &LogDevice{logger: logger.With("component", "indicator_device")}
}

func (d *LogDevice) SetLight(light Light, on bool) error {
	d.logger.Debug("light", "light", light.String(), "on", on)
	return nil
}

func (d *LogDevice) SetBuzzer(on bool) error {
	d.logger.Debug("buzzer", "on", on)
	return nil
}

func (d *LogDevice) Display(text string) error {
	d.logger.InfoContext(context.Background(), "display", "text", text)
	return nil
}

// NopDevice discards every write. It is used when no board is attached.
type NopDevice struct{}

func (NopDevice) SetLight(Light, bool) error { return nil }

func (NopDevice) SetBuzzer(bool) error { return nil }

func (NopDevice) Display(string) error { return nil }

// MemoryDevice keeps the current outputs in memory. It can be told to fail
// writes, which makes it useful as a stand-in board.
type MemoryDevice struct {
	mu       sync.Mutex
	lights   map[Light]bool
	buzzer   bool
	text     string
	history  []string
	failWith error
}

// NewMemoryDevice creates a MemoryDevice with every output off.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{lights: make(map[Light]bool)}
}

// FailWith makes every subsequent write return err. A nil err restores normal behaviour.
func (d *MemoryDevice) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWith = err
}

func (d *MemoryDevice) SetLight(light Light, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.lights[light] = on
	return nil
}

func (d *MemoryDevice) SetBuzzer(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.buzzer = on
	return nil
}

func (d *MemoryDevice) Display(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.text = text
	d.history = append(d.history, text)
	return nil
}

// State returns the outputs as a Frame.
func (d *MemoryDevice) State() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Frame{
		Red:    d.lights[LightRed],
		Yellow: d.lights[LightYellow],
		Green:  d.lights[LightGreen],
		Buzzer: d.buzzer,
		Text:   d.text,
	}
}

// History returns every text written to the display, oldest first.
func (d *MemoryDevice) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}
