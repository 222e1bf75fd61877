package flight

import (
	"testing"

	"github.com/stratolink/flightcore/internal/power"
)

func TestPlanIsPure(t *testing.T) {
	a := Plan(power.TierReduced, ModeDescent, 7)
	b := Plan(power.TierReduced, ModeDescent, 7)
	if a != b {
		t.Errorf("identical inputs produced different plans: %+v vs %+v", a, b)
	}
}

func TestPlanSensorsByTier(t *testing.T) {
	tests := []struct {
		tier power.Tier
		want SensorPlan
	}{
		{power.TierFull, SensorPlan{Gps: true, Imu: true, Baro: true, Temp: true, Uv: true, Mic: true, BeaconIntervalTicks: 1, BeaconThisTick: true}},
		{power.TierReduced, SensorPlan{Gps: true, Baro: true, Temp: true, BeaconIntervalTicks: 2, BeaconThisTick: true}},
		{power.TierNoGps, SensorPlan{Baro: true, Temp: true, BeaconIntervalTicks: 4, BeaconThisTick: true}},
		{power.TierEmergency, SensorPlan{BeaconIntervalTicks: 8, BeaconThisTick: true}},
	}

	for _, tc := range tests {
		got := Plan(tc.tier, ModeFloat, 0)
		if got != tc.want {
			t.Errorf("Plan(%s, float, 0) = %+v, want %+v", tc.tier, got, tc.want)
		}
	}
}

func TestPlanCapabilityMonotonic(t *testing.T) {
	// A higher tier must never exclude a sensor a lower tier includes.
	order := []power.Tier{power.TierEmergency, power.TierNoGps, power.TierReduced, power.TierFull}

	sensors := func(p SensorPlan) [6]bool {
		return [6]bool{p.Gps, p.Imu, p.Baro, p.Temp, p.Uv, p.Mic}
	}

	for i := 1; i < len(order); i++ {
		lower := sensors(Plan(order[i-1], ModeFloat, 0))
		higher := sensors(Plan(order[i], ModeFloat, 0))
		for s := range lower {
			if lower[s] && !higher[s] {
				t.Errorf("tier %s drops sensor %d that tier %s includes", order[i], s, order[i-1])
			}
		}
	}
}

func TestPlanDescentForcesGps(t *testing.T) {
	p := Plan(power.TierNoGps, ModeDescent, 0)
	if !p.Gps {
		t.Error("descent at no-gps tier must still schedule GPS")
	}
	if p.BeaconIntervalTicks != 2 {
		t.Errorf("descent no-gps interval = %d, want 2", p.BeaconIntervalTicks)
	}

	// Emergency keeps the survival beacon ahead of position.
	p = Plan(power.TierEmergency, ModeDescent, 0)
	if p.Gps {
		t.Error("descent at emergency tier must not schedule GPS")
	}
	if p.BeaconIntervalTicks != 4 {
		t.Errorf("descent emergency interval = %d, want 4", p.BeaconIntervalTicks)
	}
}

func TestPlanBeaconCadence(t *testing.T) {
	// At Reduced/float the beacon fires on even ticks only.
	for tick := uint64(0); tick < 8; tick++ {
		p := Plan(power.TierReduced, ModeFloat, tick)
		want := tick%2 == 0
		if p.BeaconThisTick != want {
			t.Errorf("tick %d: BeaconThisTick = %v, want %v", tick, p.BeaconThisTick, want)
		}
	}
}

func TestSensorPlanAnySensor(t *testing.T) {
	if Plan(power.TierEmergency, ModeFloat, 0).AnySensor() {
		t.Error("emergency float plan should schedule no sensors")
	}
	if !Plan(power.TierNoGps, ModeFloat, 0).AnySensor() {
		t.Error("no-gps plan should still schedule baro and temp")
	}
}
