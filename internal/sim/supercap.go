package sim

import (
	"errors"
	"math"
	"time"

	"github.com/stratolink/flightcore/internal/board"
)

// SolarProfile models the solar rail voltage over a repeating
// day/night cycle: a half-sine during daylight, zero at night (the
// divider draws nothing in darkness, which is exactly what the real
// board reports).
type SolarProfile struct {
	Day    time.Duration
	Night  time.Duration
	PeakMv int
	Epoch  time.Time
}

// VoltageMv returns the solar rail voltage at t.
func (p *SolarProfile) VoltageMv(t time.Time) int {
	period := p.Day + p.Night
	if period <= 0 {
		return 0
	}

	offset := t.Sub(p.Epoch) % period
	if offset < 0 {
		offset += period
	}
	if offset >= p.Day {
		return 0
	}

	phase := float64(offset) / float64(p.Day)
	return int(float64(p.PeakMv) * math.Sin(phase*math.Pi))
}

// ErrAdcFault is returned by the supercap ADC when a fault has been
// injected, standing in for a conversion started before the divider
// settled.
var ErrAdcFault = errors.New("adc conversion fault")

// Supercap models the 1 F storage capacitor as a joule reservoir. It
// implements platform.ADC: both rails are reported through the halving
// dividers, like the real board.
type Supercap struct {
	clock *Clock
	solar *SolarProfile

	farads float64
	joules float64

	// HarvestPeakW is the charge power at solar peak; it scales
	// linearly with the instantaneous solar voltage.
	HarvestPeakW float64

	faultNextRead bool
}

// NewSupercap creates the capacitor model charged to initialMv.
func NewSupercap(clock *Clock, solar *SolarProfile, initialMv int) *Supercap {
	s := Supercap{
		clock:        clock,
		solar:        solar,
		farads:       board.SupercapFarads,
		HarvestPeakW: 0.05,
	}
	s.joules = energyJ(s.farads, initialMv)
	return &s
}

func energyJ(farads float64, mv int) float64 {
	v := float64(mv) / 1000
	return 0.5 * farads * v * v
}

// VoltageMv returns the current stored rail voltage.
func (s *Supercap) VoltageMv() int {
	v := math.Sqrt(2 * s.joules / s.farads)
	return int(v * 1000)
}

// Drain removes j joules, for per-cycle action costs.
func (s *Supercap) Drain(j float64) {
	s.joules = math.Max(0, s.joules-j)
}

// Integrate applies d worth of sleep drain and solar harvest. Charging
// stops at the overvoltage lockout, as the BQ25570 would.
func (s *Supercap) Integrate(d time.Duration) {
	secs := d.Seconds()
	v := float64(s.VoltageMv()) / 1000

	drain := v * board.SleepCurrentUa * 1e-6 * secs
	s.joules = math.Max(0, s.joules-drain)

	if s.solar != nil && s.HarvestPeakW > 0 {
		solarMv := s.solar.VoltageMv(s.clock.Now())
		harvest := s.HarvestPeakW * float64(solarMv) / float64(s.solar.PeakMv) * secs
		s.joules = math.Min(energyJ(s.farads, board.SupercapMaxMv), s.joules+harvest)
	}
}

// InjectAdcFault makes the next rail read fail once.
func (s *Supercap) InjectAdcFault() {
	s.faultNextRead = true
}

// ReadStoredVoltageRaw implements platform.ADC.
func (s *Supercap) ReadStoredVoltageRaw() (int, error) {
	if s.faultNextRead {
		s.faultNextRead = false
		return 0, ErrAdcFault
	}
	return s.VoltageMv() / board.DividerRatio, nil
}

// ReadSolarVoltageRaw implements platform.ADC.
func (s *Supercap) ReadSolarVoltageRaw() (int, error) {
	if s.solar == nil {
		return 0, nil
	}
	return s.solar.VoltageMv(s.clock.Now()) / board.DividerRatio, nil
}
