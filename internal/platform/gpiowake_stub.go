//go:build !linux

package platform

import (
	"context"
	"errors"
	"time"
)

// IrqLine is only available on Linux, where the bench rig exposes the
// accelerometer interrupt through the GPIO character device.
type IrqLine struct{}

var errNoGpio = errors.New("gpio interrupt lines require linux")

func NewIrqLine(chipName string, offset int) (*IrqLine, error) {
	return nil, errNoGpio
}

func (l *IrqLine) SetFreefallHandler(fn func()) {}

func (l *IrqLine) Wait(ctx context.Context, d time.Duration) (WakeReason, error) {
	return WakeTimer, errNoGpio
}

func (l *IrqLine) Close() error { return nil }
