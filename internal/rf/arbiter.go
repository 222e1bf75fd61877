// Package rf serializes access to the shared RF front end. LoRa TX at
// +22 dBm desenses the GNSS receiver, so GNSS acquisition and LoRa
// transmission must never overlap in time.
package rf

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Resource identifies a user of the RF front end.
type Resource int

const (
	ResourceGps Resource = iota + 1
	ResourceLora
)

func (r Resource) String() string {
	switch r {
	case ResourceGps:
		return "gps"
	case ResourceLora:
		return "lora"
	}
	return "none"
}

// ErrBusy is returned when a lease is already outstanding. The control
// loop is single-threaded and never overlaps requests, so hitting this
// is a programming-invariant violation; it is logged loudly and the
// caller skips the operation for the tick.
var ErrBusy = errors.New("rf front end busy")

// Arbiter grants exclusive, non-reentrant leases on the RF front end.
// Mutual exclusion is enforced with a real lock even though only one
// caller path exists today, so the invariant survives a future move
// to interrupt- or DMA-driven callers.
type Arbiter struct {
	logger *slog.Logger

	mu     sync.Mutex
	holder Resource
}

// WithLogger sets the logger for invariant violations.
func WithLogger(logger *slog.Logger) func(*Arbiter) {
	return func(a *Arbiter) {
		a.logger = logger.With(slog.String("component", "rf"))
	}
}

// NewArbiter creates an Arbiter with a discard logger.
func NewArbiter(options ...func(*Arbiter)) *Arbiter {
	a := Arbiter{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&a)
	}

	return &a
}

// Acquire takes the front end for the given resource. It fails with
// ErrBusy if any lease is outstanding, including one for the same
// resource: leases are not reentrant.
func (a *Arbiter) Acquire(r Resource) (*Lease, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.holder != 0 {
		a.logger.Error("rf lease contention, invariant violation",
			slog.String("held", a.holder.String()),
			slog.String("requested", r.String()))
		return nil, ErrBusy
	}

	a.holder = r
	return &Lease{arbiter: a, resource: r}, nil
}

// Held reports the resource currently holding the front end, or zero.
func (a *Arbiter) Held() Resource {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}

// Lease is an exclusive ownership token for the RF front end. It must
// be released before the other resource can be leased.
type Lease struct {
	arbiter  *Arbiter
	resource Resource
	released bool
}

// Resource returns the resource this lease was granted for.
func (l *Lease) Resource() Resource {
	return l.resource
}

// Release returns the front end. Releasing twice is a no-op beyond a
// logged warning.
func (l *Lease) Release() {
	l.arbiter.mu.Lock()
	defer l.arbiter.mu.Unlock()

	if l.released {
		l.arbiter.logger.Warn("rf lease released twice",
			slog.String("resource", l.resource.String()))
		return
	}

	l.released = true
	l.arbiter.holder = 0
}
