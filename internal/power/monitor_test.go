package power

import (
	"errors"
	"testing"

	"github.com/stratolink/flightcore/internal/board"
)

// raw converts a rail voltage to the divider-tap value the ADC would
// report for it.
func raw(mv int) int {
	return mv / board.DividerRatio
}

func TestMonitorInitialClassification(t *testing.T) {
	tests := []struct {
		storedMv int
		want     Tier
	}{
		{5200, TierFull},
		{4500, TierFull},
		{4499, TierReduced},
		{3000, TierReduced},
		{2999, TierNoGps},
		{2800, TierNoGps},
		{2799, TierEmergency},
		{0, TierEmergency},
	}

	for _, tc := range tests {
		m := NewMonitor()
		r, err := m.Update(raw(tc.storedMv), 0)
		if err != nil {
			t.Fatalf("Update(%d): unexpected error: %s", tc.storedMv, err)
		}
		if r.Tier != tc.want {
			t.Errorf("Update(%d): tier = %s, want %s", tc.storedMv, r.Tier, tc.want)
		}
		if !r.TierChanged {
			t.Errorf("Update(%d): first update must report TierChanged", tc.storedMv)
		}
	}
}

func TestMonitorDischargeSteps(t *testing.T) {
	m := NewMonitor()

	steps := []struct {
		storedMv int
		want     Tier
	}{
		{4600, TierFull},
		{3400, TierReduced},
		{2900, TierNoGps},
		{2700, TierEmergency},
	}

	for _, s := range steps {
		r, err := m.Update(raw(s.storedMv), 0)
		if err != nil {
			t.Fatalf("Update(%d): unexpected error: %s", s.storedMv, err)
		}
		if r.Tier != s.want {
			t.Fatalf("Update(%d): tier = %s, want %s", s.storedMv, r.Tier, s.want)
		}
	}
}

func TestMonitorHysteresisHoldsThroughNoise(t *testing.T) {
	m := NewMonitor()
	if _, err := m.Update(raw(4600), 0); err != nil {
		t.Fatal(err)
	}

	// Dipping just below the falling edge sheds the tier; wobbling back
	// above it must not restore Full until the rising edge is crossed.
	r, err := m.Update(raw(4480), 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier != TierReduced {
		t.Fatalf("after dip to 4480: tier = %s, want %s", r.Tier, TierReduced)
	}

	r, err = m.Update(raw(4520), 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier != TierReduced {
		t.Errorf("after rebound to 4520: tier = %s, want %s", r.Tier, TierReduced)
	}
	if r.TierChanged {
		t.Error("rebound below the rising edge must not change the tier")
	}
}

func TestMonitorRecoveryClimb(t *testing.T) {
	m := NewMonitor()
	if _, err := m.Update(raw(2700), 0); err != nil {
		t.Fatal(err)
	}
	if m.Tier() != TierEmergency {
		t.Fatalf("seed tier = %s, want %s", m.Tier(), TierEmergency)
	}

	// A jump to 4600 crosses the first two rising edges but stays under
	// 4700, so recovery lands at Reduced rather than Full.
	r, err := m.Update(raw(4600), 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier != TierReduced {
		t.Fatalf("recovery to 4600: tier = %s, want %s", r.Tier, TierReduced)
	}

	r, err = m.Update(raw(4700), 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier != TierFull {
		t.Errorf("recovery to 4700: tier = %s, want %s", r.Tier, TierFull)
	}
}

func TestMonitorOutOfRangeForcesEmergency(t *testing.T) {
	m := NewMonitor(WithTier(TierFull))

	r, err := m.Update(-1, 0)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Update(-1): err = %v, want ErrOutOfRange", err)
	}
	if r.Tier != TierEmergency {
		t.Errorf("Update(-1): tier = %s, want %s", r.Tier, TierEmergency)
	}
	if !r.TierChanged {
		t.Error("fail-safe drop from Full must report TierChanged")
	}

	// Over-range on the solar rail trips the same fail-safe.
	m = NewMonitor(WithTier(TierFull))
	if _, err := m.Update(raw(4000), raw(board.SolarRailMaxMv)+1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("solar over-range: err = %v, want ErrOutOfRange", err)
	}
}

func TestMonitorRestoredTierAppliesHysteresis(t *testing.T) {
	// A monitor seeded from persisted state must debounce against that
	// tier, not re-classify from scratch.
	m := NewMonitor(WithTier(TierReduced))

	r, err := m.Update(raw(4600), 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier != TierReduced {
		t.Errorf("seeded Reduced at 4600: tier = %s, want %s", r.Tier, TierReduced)
	}
	if r.TierChanged {
		t.Error("4600 from seeded Reduced must not change the tier")
	}
}

func TestMonitorDaylight(t *testing.T) {
	m := NewMonitor()

	r, err := m.Update(raw(4000), raw(1200))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Daylight {
		t.Error("1200 mV solar rail should read as daylight")
	}

	r, err = m.Update(raw(4000), raw(100))
	if err != nil {
		t.Fatal(err)
	}
	if r.Daylight {
		t.Error("100 mV solar rail should read as darkness")
	}
}

func TestTierStringRoundTrip(t *testing.T) {
	for _, tier := range []Tier{TierEmergency, TierNoGps, TierReduced, TierFull} {
		got, err := ParseTier(tier.String())
		if err != nil {
			t.Fatalf("ParseTier(%q): %s", tier.String(), err)
		}
		if got != tier {
			t.Errorf("ParseTier(%q) = %s, want %s", tier.String(), got, tier)
		}
	}

	if _, err := ParseTier("bogus"); err == nil {
		t.Error("ParseTier(bogus): expected error")
	}
}
