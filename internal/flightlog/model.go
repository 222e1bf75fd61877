package flightlog

import (
	"database/sql"
	"time"
)

// SessionRecord is one logged flight (or bench run).
type SessionRecord struct {
	ID        int64
	StartTime time.Time
	Board     string
	Config    sql.NullString
}

// BeaconRecord is one transmitted (or dropped) beacon as stored in the
// flight log. Nullable columns mirror the optional beacon fields.
type BeaconRecord struct {
	ID        int64
	SessionID int64
	Tick      int64
	Timestamp time.Time
	Seq       int64
	Tier      string
	Mode      string
	StoredMv  int64
	SolarMv   int64
	Daylight  bool

	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	AltitudeM sql.NullFloat64
	FixAgeS   sql.NullFloat64

	PressureHpa  sql.NullFloat64
	TemperatureC sql.NullFloat64
	UvIndex      sql.NullFloat64

	Delivered bool
}

// EventRecord is one flight event (tier change, freefall, recoverable
// fault) as stored in the flight log.
type EventRecord struct {
	ID        int64
	SessionID int64
	Tick      int64
	Timestamp time.Time
	Kind      string
	Detail    sql.NullString
}
