// Package power converts raw divider-tap readings into rail voltages
// and classifies stored energy into discrete operating tiers.
package power

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/stratolink/flightcore/internal/board"
)

// Tier is the operating-capability level derived from stored energy.
// Higher values are more capable.
type Tier int

const (
	TierEmergency Tier = iota
	TierNoGps
	TierReduced
	TierFull
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierReduced:
		return "reduced"
	case TierNoGps:
		return "no-gps"
	case TierEmergency:
		return "emergency"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier maps the string form back to a Tier. Used when reading
// flight logs.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "full":
		return TierFull, nil
	case "reduced":
		return TierReduced, nil
	case "no-gps":
		return TierNoGps, nil
	case "emergency":
		return TierEmergency, nil
	}
	return TierEmergency, fmt.Errorf("unknown tier %q", s)
}

// ErrOutOfRange is returned when a reading is outside the physically
// possible range for its rail. The tier is forced to TierEmergency
// when this happens: a bogus reading must never be trusted upward.
var ErrOutOfRange = errors.New("reading outside physical range")

// Tier boundaries in millivolts, indexed by the lower tier of each
// adjacent pair: [0] Emergency/NoGps, [1] NoGps/Reduced, [2] Reduced/Full.
//
// The falling edges are the board's documented shedding thresholds.
// The rising edges sit at least 200 mV higher so a noisy reading near
// a boundary cannot flip the tier back and forth.
var (
	fallBelowMv = [3]int{2800, 3000, 4500}
	riseAboveMv = [3]int{3000, 3500, 4700}
)

// Reading is one calibrated sample of both power rails.
type Reading struct {
	StoredMv int
	SolarMv  int
	Tier     Tier

	// TierChanged reports whether this update moved the tier.
	TierChanged bool

	// Daylight is true while the solar rail shows meaningful output.
	// The divider draws nothing at night, so a near-zero reading is a
	// reliable darkness signal.
	Daylight bool
}

// daylightThresholdMv is well above divider noise but below any
// useful harvesting voltage.
const daylightThresholdMv = 250

// Monitor owns the persisted tier and applies the hysteresis walk on
// every update. It is not safe for concurrent use; the control loop
// is the only caller.
type Monitor struct {
	logger      *slog.Logger
	tier        Tier
	initialized bool
}

// WithLogger sets the logger for tier transition events.
func WithLogger(logger *slog.Logger) func(*Monitor) {
	return func(m *Monitor) {
		m.logger = logger.With(slog.String("component", "power"))
	}
}

// WithTier seeds the persisted tier, used when restoring state after
// a sleep/wake cycle.
func WithTier(t Tier) func(*Monitor) {
	return func(m *Monitor) {
		m.tier = t
		m.initialized = true
	}
}

// NewMonitor creates a Monitor with a discard logger.
func NewMonitor(options ...func(*Monitor)) *Monitor {
	m := Monitor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&m)
	}

	return &m
}

// Tier returns the current debounced tier.
func (m *Monitor) Tier() Tier {
	return m.tier
}

// Update scales the raw divider-tap readings to rail voltages and
// walks the tier across any boundaries the stored voltage crossed.
// On an out-of-range reading it forces TierEmergency and returns
// ErrOutOfRange along with the (untrusted) scaled values.
func (m *Monitor) Update(rawStoredMv, rawSolarMv int) (Reading, error) {
	r := Reading{
		StoredMv: rawStoredMv * board.DividerRatio,
		SolarMv:  rawSolarMv * board.DividerRatio,
	}

	if r.StoredMv < 0 || r.StoredMv > board.StoredRailMaxMv ||
		r.SolarMv < 0 || r.SolarMv > board.SolarRailMaxMv {
		r.TierChanged = m.tier != TierEmergency || !m.initialized
		m.tier = TierEmergency
		m.initialized = true
		r.Tier = m.tier

		m.logger.Error("out of range reading, forcing emergency tier",
			slog.Int("storedMv", r.StoredMv), slog.Int("solarMv", r.SolarMv))
		return r, ErrOutOfRange
	}

	r.Daylight = r.SolarMv >= daylightThresholdMv

	if !m.initialized {
		m.tier = classify(r.StoredMv)
		m.initialized = true
		r.Tier = m.tier
		r.TierChanged = true
		return r, nil
	}

	prev := m.tier
	next := m.tier
	for next > TierEmergency && r.StoredMv < fallBelowMv[next-1] {
		next--
	}
	for next < TierFull && r.StoredMv >= riseAboveMv[next] {
		next++
	}

	if next != prev {
		m.tier = next
		r.TierChanged = true
		m.logger.Info("power tier changed",
			slog.String("from", prev.String()),
			slog.String("to", next.String()),
			slog.Int("storedMv", r.StoredMv))
	}

	r.Tier = m.tier
	return r, nil
}

// classify assigns the initial tier from the falling thresholds. With
// no previous tier there is no hysteresis to apply.
func classify(storedMv int) Tier {
	t := TierFull
	for t > TierEmergency && storedMv < fallBelowMv[t-1] {
		t--
	}
	return t
}
