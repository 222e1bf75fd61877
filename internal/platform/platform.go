// Package platform defines the contracts between the flight core and
// its hardware collaborators: the ADC sampling routine, the GNSS
// driver, the LoRa stack and the wake source. The core never talks to
// registers or protocols; it consumes these abstractions, which exist
// in real (bench rig) and simulated forms.
package platform

import (
	"context"
	"errors"
	"time"
)

// WakeReason tells the control loop why it left deep sleep.
type WakeReason int

const (
	WakeTimer WakeReason = iota
	WakeFreefall
)

func (w WakeReason) String() string {
	if w == WakeFreefall {
		return "freefall"
	}
	return "timer"
}

// ADC reads the divider taps on the stored-energy and solar rails.
// Implementations must honour the board's settling delay before
// sampling; a sub-minimum settle yields an invalid reading, which the
// power monitor treats as out of range.
type ADC interface {
	// ReadStoredVoltageRaw returns the VSTOR divider tap in millivolts.
	ReadStoredVoltageRaw() (int, error)

	// ReadSolarVoltageRaw returns the solar divider tap in millivolts.
	ReadSolarVoltageRaw() (int, error)
}

// Fix is one GNSS position solution.
type Fix struct {
	Latitude   float64
	Longitude  float64
	AltitudeM  float64
	Satellites int
	Time       time.Time
}

// ErrFixTimeout is returned by RequestFix when no fix was obtained
// within the bounded wait.
var ErrFixTimeout = errors.New("gnss fix timeout")

// GNSS is the receiver driver boundary. The module is power-gated
// between ticks and its dynamic-model setting does not survive reset
// (almanac and RTC do, on backup power), so ConfigureDynamicModel must
// be reissued before every acquisition, not once per flight.
type GNSS interface {
	// ConfigureDynamicModel issues the airborne <4g dynamic model
	// command. Without it the receiver locks out above 12 km.
	ConfigureDynamicModel(ctx context.Context) error

	// RequestFix blocks until a fix is obtained, the timeout elapses
	// (ErrFixTimeout) or ctx is cancelled.
	RequestFix(ctx context.Context, timeout time.Duration) (Fix, error)
}

// Radio is the LoRa stack boundary. Framing, join state and regional
// parameters all live behind it; the core hands over an encoded beacon
// and learns only whether the send was accepted.
type Radio interface {
	Transmit(ctx context.Context, payload []byte) error
}

// SensorSet names the non-GNSS sensors to sample on a tick.
type SensorSet struct {
	Imu  bool
	Baro bool
	Temp bool
	Uv   bool
	Mic  bool
}

// SensorReadings carries whatever the sampler obtained. Fields are nil
// when the sensor was skipped or its read failed; a partial result is
// normal, not an error.
type SensorReadings struct {
	PressureHpa  *float64
	TemperatureC *float64
	UvIndex      *float64
	AccelMg      *[3]int
}

// Sampler drives the register-level sensor drivers for one tick.
type Sampler interface {
	Sample(ctx context.Context, set SensorSet) (SensorReadings, error)
}

// InterruptSource delivers the freefall hardware interrupt. The
// handler runs in interrupt (or event goroutine) context and must only
// set a latch.
type InterruptSource interface {
	SetFreefallHandler(fn func())
}

// WakeSource parks the system until the programmed duration elapses or
// a freefall interrupt pre-empts the sleep.
type WakeSource interface {
	// Wait sleeps for up to d and reports why it returned. It returns
	// WakeTimer with ctx.Err() when the context is cancelled.
	Wait(ctx context.Context, d time.Duration) (WakeReason, error)
}
