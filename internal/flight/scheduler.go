package flight

import (
	"github.com/stratolink/flightcore/internal/platform"
	"github.com/stratolink/flightcore/internal/power"
)

// Mode is the flight phase. Float covers ascent and cruise; Descent is
// entered on a freefall interrupt and latched until an explicit
// ground-commanded reset. It is never cleared automatically.
type Mode int

const (
	ModeFloat Mode = iota
	ModeDescent
)

func (m Mode) String() string {
	if m == ModeDescent {
		return "descent"
	}
	return "float"
}

// SensorPlan is the per-tick schedule: which sensors to sample, the
// beacon cadence, and whether the beacon is due this tick. Plans are
// recomputed every tick and never mutated.
type SensorPlan struct {
	Gps  bool
	Imu  bool
	Baro bool
	Temp bool
	Uv   bool
	Mic  bool

	BeaconIntervalTicks int
	BeaconThisTick      bool
}

// SensorSet extracts the non-GNSS sensors for the sampler collaborator.
func (p SensorPlan) SensorSet() platform.SensorSet {
	return platform.SensorSet{
		Imu:  p.Imu,
		Baro: p.Baro,
		Temp: p.Temp,
		Uv:   p.Uv,
		Mic:  p.Mic,
	}
}

// AnySensor reports whether any sampling (including GNSS) happens on
// ticks scheduled by this plan.
func (p SensorPlan) AnySensor() bool {
	return p.Gps || p.Imu || p.Baro || p.Temp || p.Uv || p.Mic
}

// Beacon cadence per tier, in ticks. Descent forces the fastest rate
// the tier's energy can sustain, not unconditionally every tick.
var (
	floatInterval   = map[power.Tier]int{power.TierFull: 1, power.TierReduced: 2, power.TierNoGps: 4, power.TierEmergency: 8}
	descentInterval = map[power.Tier]int{power.TierFull: 1, power.TierReduced: 1, power.TierNoGps: 2, power.TierEmergency: 4}
)

// Plan computes the schedule for one tick. It is a pure function of
// its inputs: identical (tier, mode, tick) always yields an identical
// plan. The capability table is monotonic in tier: a higher tier never
// excludes a sensor a lower tier includes.
func Plan(tier power.Tier, mode Mode, tick uint64) SensorPlan {
	var p SensorPlan

	switch tier {
	case power.TierFull:
		p.Gps, p.Imu, p.Baro, p.Temp, p.Uv, p.Mic = true, true, true, true, true, true
	case power.TierReduced:
		p.Gps, p.Baro, p.Temp = true, true, true
	case power.TierNoGps:
		p.Baro, p.Temp = true, true
	case power.TierEmergency:
		// Distress beacon only.
	}

	p.BeaconIntervalTicks = floatInterval[tier]

	if mode == ModeDescent {
		p.BeaconIntervalTicks = descentInterval[tier]

		// Position is the highest-value datum on the way down. Force
		// GPS regardless of tier, except at Emergency where the
		// survival beacon takes precedence over position.
		if tier != power.TierEmergency {
			p.Gps = true
		}
	}

	p.BeaconThisTick = tick%uint64(p.BeaconIntervalTicks) == 0
	return p
}
