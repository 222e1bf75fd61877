package sim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stratolink/flightcore/internal/board"
	"github.com/stratolink/flightcore/internal/flight"
	"github.com/stratolink/flightcore/internal/platform"
	"github.com/stratolink/flightcore/internal/power"
)

var launch = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func testProfile() *SolarProfile {
	return &SolarProfile{
		Day:    14 * time.Hour,
		Night:  10 * time.Hour,
		PeakMv: 5800,
		Epoch:  launch,
	}
}

func TestSolarProfileDayNight(t *testing.T) {
	p := testProfile()

	if got := p.VoltageMv(launch); got != 0 {
		t.Errorf("voltage at dawn = %d, want 0", got)
	}
	if got := p.VoltageMv(launch.Add(7 * time.Hour)); got != 5800 {
		t.Errorf("voltage at solar noon = %d, want 5800", got)
	}
	if got := p.VoltageMv(launch.Add(16 * time.Hour)); got != 0 {
		t.Errorf("voltage at night = %d, want 0", got)
	}

	// Next day, same phase.
	if got := p.VoltageMv(launch.Add(24*time.Hour + 7*time.Hour)); got != 5800 {
		t.Errorf("voltage next noon = %d, want 5800", got)
	}
}

func TestSupercapAdcReportsDividedRails(t *testing.T) {
	clock := NewClock(launch.Add(7 * time.Hour))
	s := NewSupercap(clock, testProfile(), 5200)

	raw, err := s.ReadStoredVoltageRaw()
	if err != nil {
		t.Fatal(err)
	}
	got := raw * board.DividerRatio
	if got < 5190 || got > 5200 {
		t.Errorf("stored rail = %d mV, want ~5200", got)
	}

	raw, err = s.ReadSolarVoltageRaw()
	if err != nil {
		t.Fatal(err)
	}
	if got := raw * board.DividerRatio; got < 5790 || got > 5800 {
		t.Errorf("solar rail = %d mV, want ~5800", got)
	}
}

func TestSupercapSleepDrain(t *testing.T) {
	clock := NewClock(launch.Add(15 * time.Hour)) // night, no harvest
	s := NewSupercap(clock, testProfile(), 5200)

	before := s.VoltageMv()
	s.Integrate(8 * time.Hour)
	after := s.VoltageMv()

	if after >= before {
		t.Fatalf("no drain over a night of sleep: %d -> %d", before, after)
	}

	// 5.2 V x 7.5 uA over 8 h is about 1.1 J on a 13.5 J reservoir;
	// the voltage must not collapse.
	if after < 4900 {
		t.Errorf("overnight drain too aggressive: %d -> %d mV", before, after)
	}
}

func TestSupercapHarvestClampsAtLockout(t *testing.T) {
	clock := NewClock(launch.Add(7 * time.Hour)) // solar noon
	s := NewSupercap(clock, testProfile(), 5300)

	s.Integrate(12 * time.Hour)

	if got := s.VoltageMv(); got > board.SupercapMaxMv {
		t.Errorf("charged past overvoltage lockout: %d > %d mV", got, board.SupercapMaxMv)
	}
}

func TestSupercapAdcFaultIsOneShot(t *testing.T) {
	clock := NewClock(launch)
	s := NewSupercap(clock, nil, 5200)

	s.InjectAdcFault()
	if _, err := s.ReadStoredVoltageRaw(); !errors.Is(err, ErrAdcFault) {
		t.Fatalf("err = %v, want ErrAdcFault", err)
	}
	if _, err := s.ReadStoredVoltageRaw(); err != nil {
		t.Errorf("fault not cleared after one read: %s", err)
	}
}

func newTestTrajectory() *Trajectory {
	return &Trajectory{
		Launch:     launch,
		StartLat:   52.1,
		StartLon:   4.3,
		AscentMps:  5,
		DescentMps: 8,
		DriftMps:   12,
		FloatAltM:  18000,
	}
}

func TestTrajectoryPhases(t *testing.T) {
	tr := newTestTrajectory()

	if got := tr.AltitudeM(launch.Add(10 * time.Minute)); got != 3000 {
		t.Errorf("altitude after 10m ascent = %.0f, want 3000", got)
	}
	if got := tr.AltitudeM(launch.Add(2 * time.Hour)); got != 18000 {
		t.Errorf("float altitude = %.0f, want 18000", got)
	}

	burst := launch.Add(3 * time.Hour)
	tr.BeginDescent(burst)
	if got := tr.AltitudeM(burst.Add(10 * time.Minute)); got != 18000-8*600 {
		t.Errorf("altitude 10m into descent = %.0f, want %.0f", got, 18000-8*600.0)
	}
	if got := tr.AltitudeM(burst.Add(3 * time.Hour)); got != 0 {
		t.Errorf("altitude long after burst = %.0f, want ground", got)
	}

	// Eastward drift only.
	lat, lon, _ := tr.Position(launch.Add(time.Hour))
	if lat != 52.1 {
		t.Errorf("latitude drifted: %f", lat)
	}
	if lon <= 4.3 {
		t.Errorf("longitude did not advance: %f", lon)
	}
}

func TestGnssHotAndColdStarts(t *testing.T) {
	clock := NewClock(launch)
	g := NewGnss(clock, newTestTrajectory())
	ctx := context.Background()

	// First acquisition is cold; a 90 s window accommodates it.
	before := clock.Now()
	fix, err := g.RequestFix(ctx, 90*time.Second)
	if err != nil {
		t.Fatalf("cold fix: %s", err)
	}
	if spent := clock.Now().Sub(before); spent != board.GnssColdStartTypical {
		t.Errorf("cold TTFF = %s, want %s", spent, board.GnssColdStartTypical)
	}
	if fix.Satellites == 0 || fix.Time.IsZero() {
		t.Errorf("fix = %+v", fix)
	}

	// Second acquisition right after is hot and fits the short window.
	before = clock.Now()
	if _, err := g.RequestFix(ctx, 15*time.Second); err != nil {
		t.Fatalf("hot fix: %s", err)
	}
	if spent := clock.Now().Sub(before); spent != board.GnssHotStartTypical {
		t.Errorf("hot TTFF = %s, want %s", spent, board.GnssHotStartTypical)
	}

	// A cold start cannot fit the hot window.
	clock.Advance(3 * time.Hour)
	if _, err := g.RequestFix(ctx, 15*time.Second); !errors.Is(err, platform.ErrFixTimeout) {
		t.Errorf("stale fix in hot window: err = %v, want ErrFixTimeout", err)
	}
}

func TestGnssScriptedFailures(t *testing.T) {
	clock := NewClock(launch)
	g := NewGnss(clock, newTestTrajectory())
	ctx := context.Background()

	g.FailNextFixes(2)

	for i := 0; i < 2; i++ {
		if _, err := g.RequestFix(ctx, 90*time.Second); !errors.Is(err, platform.ErrFixTimeout) {
			t.Fatalf("attempt %d: err = %v, want ErrFixTimeout", i, err)
		}
	}
	if _, err := g.RequestFix(ctx, 90*time.Second); err != nil {
		t.Errorf("third attempt: %s", err)
	}

	if got := g.ConfiguredCount(); got != 0 {
		t.Errorf("configured count = %d before any configure call", got)
	}
}

func TestRadioLossIsDeterministic(t *testing.T) {
	run := func() (sent, delivered int) {
		r := NewRadio(0.3, 42)
		for i := 0; i < 100; i++ {
			_ = r.Transmit(context.Background(), []byte("beacon"))
		}
		return r.Counts()
	}

	s1, d1 := run()
	s2, d2 := run()
	if s1 != s2 || d1 != d2 {
		t.Fatalf("same seed diverged: %d/%d vs %d/%d", s1, d1, s2, d2)
	}
	if s1 != 100 {
		t.Errorf("sent = %d, want 100", s1)
	}
	if d1 == 0 || d1 == 100 {
		t.Errorf("delivered = %d, want losses at 30%% rate", d1)
	}
}

func TestRadioLossless(t *testing.T) {
	r := NewRadio(0, 1)
	for i := 0; i < 10; i++ {
		if err := r.Transmit(context.Background(), []byte("beacon")); err != nil {
			t.Fatalf("lossless link dropped a beacon: %s", err)
		}
	}
	if _, delivered := r.Counts(); delivered != 10 {
		t.Errorf("delivered = %d, want 10", delivered)
	}
}

func TestWakeTimerAdvancesClockAndEnergy(t *testing.T) {
	clock := NewClock(launch.Add(15 * time.Hour)) // night
	supercap := NewSupercap(clock, testProfile(), 5200)
	w := NewWake(clock, supercap, nil)

	before := supercap.VoltageMv()
	reason, err := w.Wait(context.Background(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if reason != platform.WakeTimer {
		t.Errorf("reason = %s, want timer", reason)
	}
	if got := clock.Now(); !got.Equal(launch.Add(16 * time.Hour)) {
		t.Errorf("clock = %s, want +1h", got)
	}
	if supercap.VoltageMv() >= before {
		t.Error("sleep did not drain the supercap")
	}
}

func TestWakeInjectsFreefall(t *testing.T) {
	clock := NewClock(launch)
	tr := newTestTrajectory()
	w := NewWake(clock, nil, tr)

	var tripped bool
	w.SetFreefallHandler(func() { tripped = true })

	burst := launch.Add(30 * time.Minute)
	w.ScheduleFreefall(burst)

	// The sleep that spans the burst instant is cut short.
	reason, err := w.Wait(context.Background(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if reason != platform.WakeFreefall {
		t.Fatalf("reason = %s, want freefall", reason)
	}
	if !tripped {
		t.Error("handler not invoked")
	}
	if got := clock.Now(); !got.Equal(burst) {
		t.Errorf("clock = %s, want the burst instant %s", got, burst)
	}

	// The trajectory switched to descent at the burst.
	if alt := tr.AltitudeM(burst.Add(time.Hour)); alt >= tr.AltitudeM(burst) {
		t.Error("trajectory still climbing after injected burst")
	}

	// The interrupt fires once; later sleeps run to term.
	reason, err = w.Wait(context.Background(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if reason != platform.WakeTimer {
		t.Errorf("second wake reason = %s, want timer", reason)
	}
}

func TestSamplerReadings(t *testing.T) {
	clock := NewClock(launch.Add(7 * time.Hour)) // daylight, at float
	tr := newTestTrajectory()
	s := NewSampler(clock, tr, testProfile())

	readings, err := s.Sample(context.Background(), platform.SensorSet{Baro: true, Temp: true, Uv: true})
	if err != nil {
		t.Fatal(err)
	}

	if readings.PressureHpa == nil || *readings.PressureHpa > 200 {
		t.Errorf("pressure at 18 km = %v, want stratospheric", readings.PressureHpa)
	}
	if readings.TemperatureC == nil || *readings.TemperatureC != -56.5 {
		t.Errorf("temperature at 18 km = %v, want tropopause clamp", readings.TemperatureC)
	}
	if readings.UvIndex == nil || *readings.UvIndex <= 0 {
		t.Errorf("uv in daylight = %v, want positive", readings.UvIndex)
	}

	// Skipped sensors stay nil.
	readings, err = s.Sample(context.Background(), platform.SensorSet{Temp: true})
	if err != nil {
		t.Fatal(err)
	}
	if readings.PressureHpa != nil || readings.UvIndex != nil {
		t.Errorf("unrequested readings present: %+v", readings)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)

	if _, ok, err := s.Load(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	state := flight.NewState()
	state.Tier = power.TierReduced
	state.Mode = flight.ModeDescent
	state.Tick = 17
	state.BeaconSeq = 9

	if err := s.Save(state); err != nil {
		t.Fatalf("Save: %s", err)
	}

	got, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Tier != power.TierReduced || got.Mode != flight.ModeDescent || got.Tick != 17 || got.BeaconSeq != 9 {
		t.Errorf("restored state = %+v", got)
	}
}

func TestFileStoreCorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)

	if err := os.WriteFile(path, []byte("{garbled"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if ok {
		t.Error("corrupt state file reported as present")
	}
}
