package flightlog

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      board,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    board,
    config
FROM sessions
ORDER BY start_time`

	insertBeaconSQL = `
INSERT INTO beacons (session_id,
                     tick,
                     timestamp,
                     seq,
                     tier,
                     mode,
                     stored_mv,
                     solar_mv,
                     daylight,
                     latitude,
                     longitude,
                     altitude_m,
                     fix_age_s,
                     pressure_hpa,
                     temperature_c,
                     uv_index,
                     delivered)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectBeaconsSQL = `
SELECT
    id,
    session_id,
    tick,
    timestamp,
    seq,
    tier,
    mode,
    stored_mv,
    solar_mv,
    daylight,
    latitude,
    longitude,
    altitude_m,
    fix_age_s,
    pressure_hpa,
    temperature_c,
    uv_index,
    delivered
FROM beacons
WHERE
    session_id = ?
ORDER BY tick`

	insertEventSQL = `
INSERT INTO events (session_id,
                    tick,
                    timestamp,
                    kind,
                    detail)
VALUES (?, ?, ?, ?, ?)`

	selectEventsSQL = `
SELECT
    id,
    session_id,
    tick,
    timestamp,
    kind,
    detail
FROM events
WHERE
    session_id = ?
ORDER BY tick`
)

//go:embed schema.sql
var schemaSQL string
