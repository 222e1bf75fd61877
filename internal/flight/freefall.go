package flight

import (
	"sync/atomic"

	"github.com/stratolink/flightcore/internal/platform"
)

// FreefallMonitor is a single-writer/single-reader latch between the
// accelerometer interrupt and the control loop. The interrupt side
// only sets the flag; Consume is the only way it is cleared, so an
// event can never be lost between the interrupt firing and the next
// tick observing it, and never observed twice.
type FreefallMonitor struct {
	tripped atomic.Bool
}

// NewFreefallMonitor returns an unarmed, untripped monitor.
func NewFreefallMonitor() *FreefallMonitor {
	return &FreefallMonitor{}
}

// Arm registers Trip as the interrupt handler on the wake source.
func (f *FreefallMonitor) Arm(src platform.InterruptSource) {
	src.SetFreefallHandler(f.Trip)
}

// Trip latches a freefall event. Safe to call from interrupt or event
// goroutine context; it does nothing but set the flag.
func (f *FreefallMonitor) Trip() {
	f.tripped.Store(true)
}

// Consume atomically reads and clears the latch. The swap is the
// compare-and-clear primitive that closes the lost-wakeup race between
// "interrupt fires" and "loop reads old value then clears".
func (f *FreefallMonitor) Consume() bool {
	return f.tripped.Swap(false)
}
