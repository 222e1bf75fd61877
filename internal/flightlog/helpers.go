package flightlog

import (
	"database/sql"

	"github.com/stratolink/flightcore/internal/flight"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func toBeaconRecord(sessionID int64, b flight.Beacon, delivered bool) *BeaconRecord {
	return &BeaconRecord{
		SessionID: sessionID,
		Tick:      int64(b.Tick),
		Timestamp: b.Time.UTC(),
		Seq:       int64(b.Seq),
		Tier:      b.Tier.String(),
		Mode:      b.Mode.String(),
		StoredMv:  int64(b.StoredMv),
		SolarMv:   int64(b.SolarMv),
		Daylight:  b.Daylight,

		Latitude:  toNullFloat(b.Latitude),
		Longitude: toNullFloat(b.Longitude),
		AltitudeM: toNullFloat(b.AltitudeM),
		FixAgeS:   toNullFloat(b.FixAgeS),

		PressureHpa:  toNullFloat(b.PressureHpa),
		TemperatureC: toNullFloat(b.TemperatureC),
		UvIndex:      toNullFloat(b.UvIndex),

		Delivered: delivered,
	}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
