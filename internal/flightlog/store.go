// Package flightlog persists flight sessions, beacons and events to a
// local SQLite database for post-flight analysis.
package flightlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles flight log database operations. Connections are opened
// lazily: a write connection with WAL journaling for the control loop
// path, and a separate read-only connection for analysis tooling.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a Store for the database at dbPath. The schema is
// initialized on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession starts a new flight log session and returns its ID.
// config can be a string, []byte or any JSON-serializable value.
func (s *Store) CreateSession(ctx context.Context, boardName string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData.Valid = true
			configData.String = v

		case []byte:
			configData.Valid = true
			configData.String = string(v)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, boardName, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

// Sessions returns all sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) (sessions []SessionRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec SessionRecord
		if err = rows.Scan(&rec.ID, &rec.StartTime, &rec.Board, &rec.Config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, rec)
	}
	err = rows.Err()
	return
}

// StoreBeacon appends one beacon record to the session.
func (s *Store) StoreBeacon(ctx context.Context, rec *BeaconRecord) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertBeaconSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(
		ctx,
		rec.SessionID,
		rec.Tick,
		rec.Timestamp,
		rec.Seq,
		rec.Tier,
		rec.Mode,
		rec.StoredMv,
		rec.SolarMv,
		rec.Daylight,
		rec.Latitude,
		rec.Longitude,
		rec.AltitudeM,
		rec.FixAgeS,
		rec.PressureHpa,
		rec.TemperatureC,
		rec.UvIndex,
		rec.Delivered,
	); err != nil {
		return fmt.Errorf("inserting beacon: %w", err)
	}
	return nil
}

// Beacons returns all beacon records for the session ordered by tick.
func (s *Store) Beacons(ctx context.Context, sessionID int64) (beacons []BeaconRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectBeaconsSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying beacons: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec BeaconRecord
		if err = rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Tick,
			&rec.Timestamp,
			&rec.Seq,
			&rec.Tier,
			&rec.Mode,
			&rec.StoredMv,
			&rec.SolarMv,
			&rec.Daylight,
			&rec.Latitude,
			&rec.Longitude,
			&rec.AltitudeM,
			&rec.FixAgeS,
			&rec.PressureHpa,
			&rec.TemperatureC,
			&rec.UvIndex,
			&rec.Delivered,
		); err != nil {
			err = fmt.Errorf("scanning beacon: %w", err)
			return
		}
		beacons = append(beacons, rec)
	}
	err = rows.Err()
	return
}

// StoreEvent appends one event record to the session.
func (s *Store) StoreEvent(ctx context.Context, rec *EventRecord) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx, rec.SessionID, rec.Tick, rec.Timestamp, rec.Kind, rec.Detail); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// Events returns all event records for the session ordered by tick.
func (s *Store) Events(ctx context.Context, sessionID int64) (events []EventRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectEventsSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying events: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec EventRecord
		if err = rows.Scan(&rec.ID, &rec.SessionID, &rec.Tick, &rec.Timestamp, &rec.Kind, &rec.Detail); err != nil {
			err = fmt.Errorf("scanning event: %w", err)
			return
		}
		events = append(events, rec)
	}
	err = rows.Err()
	return
}

// Close releases both database connections. Safe to call multiple
// times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
