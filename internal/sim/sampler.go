package sim

import (
	"context"
	"math"

	"github.com/stratolink/flightcore/internal/platform"
)

// Sampler derives plausible sensor readings from the trajectory and
// solar profile: barometric pressure and temperature from altitude,
// UV from daylight. IMU and microphone sampling are modeled as cost
// only; they produce no beacon fields.
type Sampler struct {
	clock *Clock
	traj  *Trajectory
	solar *SolarProfile
}

// NewSampler creates a sampler for the given flight path.
func NewSampler(clock *Clock, traj *Trajectory, solar *SolarProfile) *Sampler {
	return &Sampler{clock: clock, traj: traj, solar: solar}
}

// Sample implements platform.Sampler.
func (s *Sampler) Sample(ctx context.Context, set platform.SensorSet) (platform.SensorReadings, error) {
	if err := ctx.Err(); err != nil {
		return platform.SensorReadings{}, err
	}

	now := s.clock.Now()
	altM := s.traj.AltitudeM(now)

	var readings platform.SensorReadings

	if set.Baro {
		// Isothermal approximation with 8.4 km scale height.
		p := 1013.25 * math.Exp(-altM/8400)
		readings.PressureHpa = &p
	}

	if set.Temp {
		// Standard lapse rate to the tropopause, then constant.
		t := 15 - 6.5*altM/1000
		if t < -56.5 {
			t = -56.5
		}
		readings.TemperatureC = &t
	}

	if set.Uv {
		var uv float64
		if s.solar != nil && s.solar.VoltageMv(now) > 0 {
			uv = 2 + altM/2500
		}
		readings.UvIndex = &uv
	}

	return readings, nil
}
