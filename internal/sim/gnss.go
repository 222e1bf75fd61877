package sim

import (
	"context"
	"sync"
	"time"

	"github.com/stratolink/flightcore/internal/board"
	"github.com/stratolink/flightcore/internal/platform"
)

// Gnss is a scripted MAX-M10S. Time to first fix depends on how long
// ago the previous fix was obtained: backup power keeps the almanac
// alive, so recent fixes come back hot.
type Gnss struct {
	clock *Clock
	traj  *Trajectory

	// HotStartTtff / ColdStartTtff override the board-typical values.
	HotStartTtff  time.Duration
	ColdStartTtff time.Duration

	// HotFixWindow is how stale a previous fix may be and still allow
	// a hot start.
	HotFixWindow time.Duration

	mu         sync.Mutex
	lastFixAt  *time.Time
	configured int
	failCount  int
}

// NewGnss creates a receiver following the given trajectory.
func NewGnss(clock *Clock, traj *Trajectory) *Gnss {
	return &Gnss{
		clock:         clock,
		traj:          traj,
		HotStartTtff:  board.GnssHotStartTypical,
		ColdStartTtff: board.GnssColdStartTypical,
		HotFixWindow:  2 * time.Hour,
	}
}

// FailNextFixes makes the next n fix requests run out their full
// timeout, simulating a blocked sky view.
func (g *Gnss) FailNextFixes(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failCount = n
}

// ConfiguredCount reports how many times the dynamic model command was
// issued; the real module needs it after every power-on.
func (g *Gnss) ConfiguredCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configured
}

// ConfigureDynamicModel implements platform.GNSS.
func (g *Gnss) ConfigureDynamicModel(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configured++
	return ctx.Err()
}

// RequestFix implements platform.GNSS. It advances the simulated clock
// by the acquisition time actually spent.
func (g *Gnss) RequestFix(ctx context.Context, timeout time.Duration) (platform.Fix, error) {
	if err := ctx.Err(); err != nil {
		return platform.Fix{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()

	if g.failCount > 0 {
		g.failCount--
		g.clock.Advance(timeout)
		return platform.Fix{}, platform.ErrFixTimeout
	}

	ttff := g.ColdStartTtff
	if g.lastFixAt != nil && now.Sub(*g.lastFixAt) <= g.HotFixWindow {
		ttff = g.HotStartTtff
	}

	if ttff > timeout {
		g.clock.Advance(timeout)
		return platform.Fix{}, platform.ErrFixTimeout
	}

	g.clock.Advance(ttff)
	fixTime := g.clock.Now()
	g.lastFixAt = &fixTime

	lat, lon, alt := g.traj.Position(fixTime)
	return platform.Fix{
		Latitude:   lat,
		Longitude:  lon,
		AltitudeM:  alt,
		Satellites: 9,
		Time:       fixTime,
	}, nil
}
