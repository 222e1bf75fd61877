package sim

import (
	"context"
	"sync"
	"time"

	"github.com/stratolink/flightcore/internal/platform"
)

// Wake is the simulated wake timer. It advances the clock, integrates
// the energy model over the slept interval, and can inject one
// freefall interrupt at a scripted instant, pre-empting the sleep the
// way the accelerometer INT1 line pre-empts STOP2.
//
// It implements platform.WakeSource and platform.InterruptSource.
type Wake struct {
	clock    *Clock
	supercap *Supercap
	traj     *Trajectory

	mu         sync.Mutex
	handler    func()
	freefallAt *time.Time
	fired      bool
}

// NewWake creates a wake source over the simulated clock.
func NewWake(clock *Clock, supercap *Supercap, traj *Trajectory) *Wake {
	return &Wake{clock: clock, supercap: supercap, traj: traj}
}

// ScheduleFreefall scripts a burst at the given instant.
func (w *Wake) ScheduleFreefall(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.freefallAt = &at
	w.fired = false
}

// SetFreefallHandler implements platform.InterruptSource.
func (w *Wake) SetFreefallHandler(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = fn
}

// Wait implements platform.WakeSource.
func (w *Wake) Wait(ctx context.Context, d time.Duration) (platform.WakeReason, error) {
	if err := ctx.Err(); err != nil {
		return platform.WakeTimer, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()

	if w.freefallAt != nil && !w.fired && !w.freefallAt.After(now.Add(d)) {
		slept := w.freefallAt.Sub(now)
		if slept < 0 {
			slept = 0
		}
		w.elapse(slept)
		w.fired = true

		if w.traj != nil {
			w.traj.BeginDescent(w.clock.Now())
		}
		if w.handler != nil {
			w.handler()
		}
		return platform.WakeFreefall, nil
	}

	w.elapse(d)
	return platform.WakeTimer, nil
}

func (w *Wake) elapse(d time.Duration) {
	w.clock.Advance(d)
	if w.supercap != nil {
		w.supercap.Integrate(d)
	}
}
