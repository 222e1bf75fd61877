package sim

import (
	"math"
	"sync"
	"time"
)

// Trajectory is a simple kinematic flight path shared by the GNSS and
// sensor models: constant-rate ascent to float altitude, eastward
// drift, and constant-rate descent once a burst is injected.
type Trajectory struct {
	Launch     time.Time
	StartLat   float64
	StartLon   float64
	AscentMps  float64
	DescentMps float64
	DriftMps   float64
	FloatAltM  float64

	mu        sync.Mutex
	descentAt *time.Time
	burstAltM float64
}

// BeginDescent switches the path to descent at t, from whatever
// altitude the balloon had reached.
func (tr *Trajectory) BeginDescent(t time.Time) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.descentAt != nil {
		return
	}
	tr.burstAltM = tr.altitudeLocked(t)
	at := t
	tr.descentAt = &at
}

// AltitudeM returns the altitude at t.
func (tr *Trajectory) AltitudeM(t time.Time) float64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.altitudeLocked(t)
}

func (tr *Trajectory) altitudeLocked(t time.Time) float64 {
	if tr.descentAt != nil && t.After(*tr.descentAt) {
		fallen := t.Sub(*tr.descentAt).Seconds() * tr.DescentMps
		return math.Max(0, tr.burstAltM-fallen)
	}

	climbed := t.Sub(tr.Launch).Seconds() * tr.AscentMps
	return math.Min(tr.FloatAltM, math.Max(0, climbed))
}

// Position returns latitude, longitude and altitude at t. Drift is a
// straight eastward track; good enough for exercising the core.
func (tr *Trajectory) Position(t time.Time) (lat, lon, altM float64) {
	altM = tr.AltitudeM(t)

	elapsed := math.Max(0, t.Sub(tr.Launch).Seconds())
	meters := elapsed * tr.DriftMps
	lat = tr.StartLat

	// Degrees of longitude per meter at this latitude.
	lon = tr.StartLon + meters/(111_320*math.Cos(tr.StartLat*math.Pi/180))
	return lat, lon, altM
}
