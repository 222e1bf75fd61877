// Package board carries the Stratolink PICO mainboard constants the
// flight core depends on. Values mirror the hardware: resistor divider
// ratios, BQ25570 programmed thresholds, supercapacitor energy budget
// and u-blox MAX-M10S timing. None of these are tunable in firmware;
// they are set by the board layout.
package board

import "time"

// Voltage sensing. Both the VSTOR and solar rails go through symmetric
// 1 MOhm / 1 MOhm dividers, so the ADC sees half the rail voltage.
const (
	DividerRatio = 2

	// The dividers have ~500 kOhm Thevenin source impedance. The ADC
	// input must settle for at least this long after the analog input
	// is enabled, or the reading is invalid.
	AdcSettleDelay = 50 * time.Millisecond
)

// BQ25570 harvester thresholds, programmed by resistors R1-R8.
const (
	StoredRailMaxMv = 5363 // VBAT overvoltage lockout
	VbatOkRiseMv    = 3510 // VBAT_OK asserts
	VbatOkFallMv    = 1692 // VBAT_OK deasserts
	BuckOutputMv    = 3312 // VOUT nominal

	// Open-circuit ceiling for the solar rail. Anything above this at
	// the divider output is a wiring or ADC fault, not sunlight.
	SolarRailMaxMv = 6500
)

// Supercapacitor energy budget.
const (
	SupercapFarads = 1.0
	SupercapMaxMv  = 5360
	SupercapMinMv  = 2510

	// Total system draw in STOP2 sleep, microamps.
	SleepCurrentUa = 7.5
)

// u-blox MAX-M10S. V_BCKP is tied to VCC, so almanac and RTC survive
// power gating and most fixes are hot starts.
const (
	GnssDynModelAirborne = 8 // UBX-CFG-NAVSPG-DYNMODEL, <4g. Mandatory above 12 km.

	GnssHotStartTypical  = 5 * time.Second
	GnssColdStartTypical = 45 * time.Second // wire monopole, 40-60 s observed
)

// LIS2DH12 freefall interrupt configuration (INT1, rising edge).
const (
	FreefallThresholdMg = 350
	FreefallDurationMs  = 30
)

// Name identifies the board revision in flight log sessions.
const Name = "stratolink-pico r2026-02-27"
