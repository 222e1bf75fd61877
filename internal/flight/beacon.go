package flight

import (
	"encoding/json"
	"time"

	"github.com/stratolink/flightcore/internal/power"
)

// Beacon is the telemetry payload handed to the LoRa stack once per
// beacon tick. Tier and mode double as the error surface: a ground
// station reading "emergency" knows the payload is degraded without
// any separate status channel. Optional fields are nil when the datum
// was unavailable this tick.
type Beacon struct {
	Seq  uint32     `json:"seq"`
	Tick uint64     `json:"tick"`
	Tier power.Tier `json:"-"`
	Mode Mode       `json:"-"`

	TierName string `json:"tier"`
	ModeName string `json:"mode"`

	StoredMv int  `json:"storedMv"`
	SolarMv  int  `json:"solarMv"`
	Daylight bool `json:"daylight"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	AltitudeM *float64 `json:"altitudeM,omitempty"`

	// FixAgeS is the age of the reported position in seconds. A stale
	// or absent value tells the ground the last acquisition failed.
	FixAgeS *float64 `json:"fixAgeS,omitempty"`

	PressureHpa  *float64 `json:"pressureHpa,omitempty"`
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	UvIndex      *float64 `json:"uvIndex,omitempty"`

	Time time.Time `json:"time"`
}

// Encode serializes the beacon for the radio collaborator. LoRaWAN
// framing and port assignment happen inside the stack; this is the
// application payload only.
func (b Beacon) Encode() ([]byte, error) {
	b.TierName = b.Tier.String()
	b.ModeName = b.Mode.String()
	return json.Marshal(b)
}
