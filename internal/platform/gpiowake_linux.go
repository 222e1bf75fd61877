//go:build linux

package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// IrqLine watches the accelerometer INT1 output on a bench rig where
// the flight core runs hardware-in-the-loop on a Linux SBC. A rising
// edge on the line is the freefall interrupt: it invokes the latch
// handler and pre-empts any sleep in progress.
//
// It implements both InterruptSource and WakeSource.
type IrqLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	handler func()
	trip    chan struct{}
}

// NewIrqLine requests the given line as a rising-edge interrupt input.
func NewIrqLine(chipName string, offset int) (*IrqLine, error) {
	l := IrqLine{
		trip: make(chan struct{}, 1),
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("opening gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(l.onEvent))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("requesting irq line %d: %w", offset, err)
	}

	l.chip = chip
	l.line = line
	return &l, nil
}

// SetFreefallHandler registers the latch setter. Call before the first
// tick; the handler runs on the gpiocdev event goroutine and must not
// block.
func (l *IrqLine) SetFreefallHandler(fn func()) {
	l.handler = fn
}

func (l *IrqLine) onEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventRisingEdge {
		return
	}

	if l.handler != nil {
		l.handler()
	}

	select {
	case l.trip <- struct{}{}:
	default:
	}
}

// Wait sleeps for up to d, returning early with WakeFreefall when the
// interrupt line fires.
func (l *IrqLine) Wait(ctx context.Context, d time.Duration) (WakeReason, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-l.trip:
		return WakeFreefall, nil
	case <-timer.C:
		return WakeTimer, nil
	case <-ctx.Done():
		return WakeTimer, ctx.Err()
	}
}

// Close releases the line and chip.
func (l *IrqLine) Close() error {
	var firstErr error
	if l.line != nil {
		if err := l.line.Close(); err != nil {
			firstErr = fmt.Errorf("closing irq line: %w", err)
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing gpio chip: %w", err)
		}
	}
	return firstErr
}
