package flight

import (
	"sync"
	"time"

	"github.com/stratolink/flightcore/internal/platform"
	"github.com/stratolink/flightcore/internal/power"
)

// StateVersion guards the persisted layout. A mismatch on load means
// the backup memory holds a different firmware's state and must be
// discarded, not reinterpreted.
const StateVersion = 1

// State is the process-wide flight state that must survive the deep
// sleep between ticks. Everything else is tick-scoped and discarded.
type State struct {
	Version   int           `json:"version"`
	Tier      power.Tier    `json:"tier"`
	Mode      Mode          `json:"mode"`
	Tick      uint64        `json:"tick"`
	BeaconSeq uint32        `json:"beaconSeq"`
	LastFix   *platform.Fix `json:"lastFix,omitempty"`
}

// NewState returns the boot state: Full tier until the first energy
// reading says otherwise, Float mode, counters at zero.
func NewState() State {
	return State{Version: StateVersion, Tier: power.TierFull}
}

// StateStore persists State to backup-powered storage. The zero-cost
// in-memory form exists for tests; the simulator uses a file-backed
// one standing in for RTC backup RAM.
type StateStore interface {
	// Load returns the stored state and whether one was present.
	Load() (State, bool, error)
	Save(State) error
}

// MemoryStore is a StateStore backed by process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

func (s *MemoryStore) Load() (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.saved, nil
}

func (s *MemoryStore) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.saved = true
	return nil
}

// fixAge returns how stale the last fix is at now, and whether a fix
// exists at all.
func (s *State) fixAge(now time.Time) (time.Duration, bool) {
	if s.LastFix == nil {
		return 0, false
	}
	return now.Sub(s.LastFix.Time), true
}
