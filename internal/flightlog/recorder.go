package flightlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stratolink/flightcore/internal/flight"
)

// recordTimeout bounds each log write so a wedged filesystem cannot
// stall the control loop.
const recordTimeout = 5 * time.Second

// Recorder adapts a Store session to the flight.Recorder interface.
// Write failures are logged and swallowed: losing a log row must never
// affect the flight.
type Recorder struct {
	store     *Store
	sessionID int64
	logger    *slog.Logger
	now       func() time.Time
}

// WithRecorderLogger sets the logger for write failures.
func WithRecorderLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger.With(slog.String("component", "flightlog"))
	}
}

// NewRecorder creates a Recorder bound to an existing session.
func (s *Store) NewRecorder(sessionID int64, options ...func(*Recorder)) *Recorder {
	r := Recorder{
		store:     s,
		sessionID: sessionID,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// RecordBeacon implements flight.Recorder.
func (r *Recorder) RecordBeacon(b flight.Beacon, delivered bool) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.store.StoreBeacon(ctx, toBeaconRecord(r.sessionID, b, delivered)); err != nil {
		r.logger.Error(fmt.Sprintf("recording beacon: %s", err))
	}
}

// RecordEvent implements flight.Recorder.
func (r *Recorder) RecordEvent(tick uint64, kind, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	rec := EventRecord{
		SessionID: r.sessionID,
		Tick:      int64(tick),
		Timestamp: r.now().UTC(),
		Kind:      kind,
		Detail:    toNullString(detail),
	}
	if err := r.store.StoreEvent(ctx, &rec); err != nil {
		r.logger.Error(fmt.Sprintf("recording event: %s", err))
	}
}
