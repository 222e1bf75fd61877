// Package flight implements the power-aware flight state machine: one
// decision per wake cycle about what to sample, whether to acquire a
// GNSS fix, whether to transmit, and how long to sleep.
package flight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stratolink/flightcore/internal/platform"
	"github.com/stratolink/flightcore/internal/power"
	"github.com/stratolink/flightcore/internal/rf"
)

// Flight event kinds recorded to the flight log.
const (
	EventFreefall        = "freefall"
	EventTierChange      = "tier_change"
	EventOutOfRange      = "adc_out_of_range"
	EventGnssTimeout     = "gnss_timeout"
	EventRfBusy          = "rf_busy"
	EventTransmitFailure = "transmit_failure"
	EventSensorFailure   = "sensor_read_failure"
	EventModeReset       = "mode_reset"
)

// Recorder receives the observable events of a flight for persistence.
// All methods are called from the control loop only.
type Recorder interface {
	RecordEvent(tick uint64, kind, detail string)
	RecordBeacon(b Beacon, delivered bool)
}

// Config holds the tunable timing of the control loop.
type Config struct {
	// BasePeriod is the wall-clock length of one tick.
	BasePeriod time.Duration

	// Bounded waits for a fix. Cold start applies when the last fix is
	// older than HotFixMaxAge (or absent); the receiver then has to
	// re-download ephemeris and needs a much longer window.
	FixTimeoutHot  time.Duration
	FixTimeoutCold time.Duration
	HotFixMaxAge   time.Duration
}

func (c *Config) withDefaults() {
	if c.BasePeriod <= 0 {
		c.BasePeriod = time.Minute
	}
	if c.FixTimeoutHot <= 0 {
		c.FixTimeoutHot = 15 * time.Second
	}
	if c.FixTimeoutCold <= 0 {
		c.FixTimeoutCold = 90 * time.Second
	}
	if c.HotFixMaxAge <= 0 {
		c.HotFixMaxAge = 2 * time.Hour
	}
}

// CycleResult summarizes one completed wake cycle.
type CycleResult struct {
	Tick        uint64
	Plan        SensorPlan
	Reading     power.Reading
	FixObtained bool
	Beaconed    bool
	Delivered   bool

	// SleepFor is the duration to program into the wake timer. The
	// freefall interrupt can pre-empt it regardless.
	SleepFor time.Duration
}

// Machine composes the energy monitor, RF arbiter, sensor scheduler
// and freefall latch into the per-tick control path. It is strictly
// single-threaded: each Tick runs to completion, and only the freefall
// latch is touched from outside.
type Machine struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	monitor  *power.Monitor
	arbiter  *rf.Arbiter
	freefall *FreefallMonitor

	adc     platform.ADC
	gnss    platform.GNSS
	radio   platform.Radio
	sampler platform.Sampler

	store    StateStore
	recorder Recorder

	state State
}

// WithLogger sets the logger for the machine and its components.
func WithLogger(logger *slog.Logger) func(*Machine) {
	return func(m *Machine) {
		m.logger = logger.With(slog.String("component", "flight"))
	}
}

// WithRecorder sets the flight log recorder.
func WithRecorder(r Recorder) func(*Machine) {
	return func(m *Machine) {
		m.recorder = r
	}
}

// WithSampler sets the sensor sampling collaborator.
func WithSampler(s platform.Sampler) func(*Machine) {
	return func(m *Machine) {
		m.sampler = s
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) func(*Machine) {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine restores persisted state from the store (discarding it on
// a version mismatch) and wires the collaborators together.
func NewMachine(cfg Config, adc platform.ADC, gnss platform.GNSS, radio platform.Radio, store StateStore, options ...func(*Machine)) (*Machine, error) {
	cfg.withDefaults()

	m := Machine{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		adc:    adc,
		gnss:   gnss,
		radio:  radio,
		store:  store,
		state:  NewState(),
	}

	for _, option := range options {
		option(&m)
	}

	saved, ok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading persisted state: %w", err)
	}
	if ok && saved.Version == StateVersion {
		m.state = saved
		m.logger.Info("restored flight state",
			slog.Uint64("tick", saved.Tick),
			slog.String("tier", saved.Tier.String()),
			slog.String("mode", saved.Mode.String()))
	} else if ok {
		m.logger.Warn("discarding persisted state with unknown version",
			slog.Int("version", saved.Version))
	}

	m.monitor = power.NewMonitor(power.WithLogger(m.logger), power.WithTier(m.state.Tier))
	m.arbiter = rf.NewArbiter(rf.WithLogger(m.logger))
	m.freefall = NewFreefallMonitor()

	return &m, nil
}

// Freefall exposes the latch so the wake source interrupt can be armed
// against it.
func (m *Machine) Freefall() *FreefallMonitor {
	return m.freefall
}

// State returns a copy of the persisted flight state.
func (m *Machine) State() State {
	return m.state
}

// ResetMode is the ground-commanded Descent -> Float reversal. It is
// never invoked by the machine itself: a false-positive freefall must
// not silently revert without confirmation from below.
func (m *Machine) ResetMode() error {
	if m.state.Mode == ModeFloat {
		return nil
	}

	m.state.Mode = ModeFloat
	m.recordEvent(m.state.Tick, EventModeReset, "ground command")
	m.logger.Info("descent mode cleared by ground command")
	return m.store.Save(m.state)
}

// Tick runs one complete wake cycle: freefall check, energy update,
// sensor sampling, optional positioning, beaconing, persistence, and
// the sleep computation for the wake timer. Every failure inside a
// cycle is recoverable; the cycle always completes with whatever data
// it managed to gather.
func (m *Machine) Tick(ctx context.Context, wake platform.WakeReason) CycleResult {
	tick := m.state.Tick
	res := CycleResult{Tick: tick}

	// Freefall outranks everything, including the energy tier.
	tripped := m.freefall.Consume()
	if wake == platform.WakeFreefall {
		tripped = true
	}
	if tripped {
		m.recordEvent(tick, EventFreefall, "")
		if m.state.Mode != ModeDescent {
			m.state.Mode = ModeDescent
			m.logger.Warn("freefall detected, entering descent mode", slog.Uint64("tick", tick))
		}
	}

	reading := m.updateEnergy(tick)
	m.state.Tier = reading.Tier
	res.Reading = reading

	plan := Plan(reading.Tier, m.state.Mode, tick)
	res.Plan = plan

	readings := m.sampleSensors(ctx, tick, plan)

	if plan.Gps {
		if fix, ok := m.acquireFix(ctx, tick); ok {
			m.state.LastFix = &fix
			res.FixObtained = true
		}
	}

	if plan.BeaconThisTick {
		res.Beaconed = true
		res.Delivered = m.transmitBeacon(ctx, tick, reading, readings)
	}

	// Advance the tick counter and persist. When the plan schedules
	// nothing between beacons, sleep straight through to the next due
	// tick instead of waking idle.
	advance := uint64(1)
	if !plan.AnySensor() && plan.BeaconIntervalTicks > 1 {
		interval := uint64(plan.BeaconIntervalTicks)
		advance = interval - tick%interval
	}
	m.state.Tick = tick + advance

	if err := m.store.Save(m.state); err != nil {
		m.logger.Error(fmt.Sprintf("persisting flight state: %s", err))
	}

	res.SleepFor = time.Duration(advance) * m.cfg.BasePeriod
	return res
}

func (m *Machine) updateEnergy(tick uint64) power.Reading {
	rawStored, err1 := m.adc.ReadStoredVoltageRaw()
	rawSolar, err2 := m.adc.ReadSolarVoltageRaw()
	if err1 != nil || err2 != nil {
		// A failed conversion is indistinguishable from a bogus one.
		// Feed an impossible value through so the monitor applies its
		// fail-safe instead of trusting stale data.
		m.logger.Error("adc read failed", slog.Any("stored", err1), slog.Any("solar", err2))
		rawStored, rawSolar = -1, -1
	}

	reading, err := m.monitor.Update(rawStored, rawSolar)
	if err != nil {
		m.recordEvent(tick, EventOutOfRange,
			fmt.Sprintf("stored=%dmV solar=%dmV", reading.StoredMv, reading.SolarMv))
	}
	if reading.TierChanged {
		m.recordEvent(tick, EventTierChange, reading.Tier.String())
	}
	return reading
}

func (m *Machine) sampleSensors(ctx context.Context, tick uint64, plan SensorPlan) platform.SensorReadings {
	set := plan.SensorSet()
	if m.sampler == nil || set == (platform.SensorSet{}) {
		return platform.SensorReadings{}
	}

	readings, err := m.sampler.Sample(ctx, set)
	if err != nil {
		// Partial data is fine; the beacon goes out with what we have.
		m.recordEvent(tick, EventSensorFailure, err.Error())
		m.logger.Warn(fmt.Sprintf("sensor sampling: %s", err))
	}
	return readings
}

// acquireFix leases the RF front end for GNSS, reissues the airborne
// dynamic model (the module was power-gated since the last fix and the
// setting does not survive reset) and waits, bounded, for a fix.
func (m *Machine) acquireFix(ctx context.Context, tick uint64) (platform.Fix, bool) {
	lease, err := m.arbiter.Acquire(rf.ResourceGps)
	if err != nil {
		m.recordEvent(tick, EventRfBusy, rf.ResourceGps.String())
		return platform.Fix{}, false
	}
	defer lease.Release()

	if err := m.gnss.ConfigureDynamicModel(ctx); err != nil {
		// Without the airborne model the receiver rejects solutions
		// above 12 km. A fix attempt would burn the window for nothing.
		m.logger.Error(fmt.Sprintf("configuring dynamic model: %s", err))
		return platform.Fix{}, false
	}

	timeout := m.cfg.FixTimeoutCold
	if age, ok := m.state.fixAge(m.now()); ok && age <= m.cfg.HotFixMaxAge {
		timeout = m.cfg.FixTimeoutHot
	}

	fix, err := m.gnss.RequestFix(ctx, timeout)
	if err != nil {
		if errors.Is(err, platform.ErrFixTimeout) {
			m.recordEvent(tick, EventGnssTimeout, timeout.String())
			m.logger.Warn("gnss fix timeout, beaconing without position",
				slog.Duration("timeout", timeout))
		} else {
			m.logger.Error(fmt.Sprintf("requesting fix: %s", err))
		}
		return platform.Fix{}, false
	}

	return fix, true
}

// transmitBeacon assembles the payload, leases the RF front end for
// LoRa and hands the beacon to the radio stack. A send failure drops
// the beacon for this tick; the next one naturally supersedes it, and
// retrying within the cycle would double the TX energy cost.
func (m *Machine) transmitBeacon(ctx context.Context, tick uint64, reading power.Reading, readings platform.SensorReadings) bool {
	m.state.BeaconSeq++

	b := Beacon{
		Seq:          m.state.BeaconSeq,
		Tick:         tick,
		Tier:         reading.Tier,
		Mode:         m.state.Mode,
		StoredMv:     reading.StoredMv,
		SolarMv:      reading.SolarMv,
		Daylight:     reading.Daylight,
		PressureHpa:  readings.PressureHpa,
		TemperatureC: readings.TemperatureC,
		UvIndex:      readings.UvIndex,
		Time:         m.now(),
	}
	if fix := m.state.LastFix; fix != nil {
		b.Latitude = &fix.Latitude
		b.Longitude = &fix.Longitude
		b.AltitudeM = &fix.AltitudeM
		age := m.now().Sub(fix.Time).Seconds()
		b.FixAgeS = &age
	}

	delivered := m.send(ctx, tick, b)
	if m.recorder != nil {
		m.recorder.RecordBeacon(b, delivered)
	}
	return delivered
}

func (m *Machine) send(ctx context.Context, tick uint64, b Beacon) bool {
	payload, err := b.Encode()
	if err != nil {
		m.logger.Error(fmt.Sprintf("encoding beacon: %s", err))
		return false
	}

	lease, err := m.arbiter.Acquire(rf.ResourceLora)
	if err != nil {
		m.recordEvent(tick, EventRfBusy, rf.ResourceLora.String())
		return false
	}
	defer lease.Release()

	if err := m.radio.Transmit(ctx, payload); err != nil {
		m.recordEvent(tick, EventTransmitFailure, err.Error())
		m.logger.Warn(fmt.Sprintf("beacon transmit failed: %s", err), slog.Uint64("seq", uint64(b.Seq)))
		return false
	}
	return true
}

func (m *Machine) recordEvent(tick uint64, kind, detail string) {
	if m.recorder != nil {
		m.recorder.RecordEvent(tick, kind, detail)
	}
}
