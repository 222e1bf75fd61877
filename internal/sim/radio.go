package sim

import (
	"context"
	"errors"
	"math/rand"
	"sync"
)

// ErrLinkLost is returned when the simulated link drops a transmission.
var ErrLinkLost = errors.New("uplink not acknowledged")

// Radio is a lossy LoRa link. Each transmission is dropped with the
// configured probability (deterministic under a fixed seed). Delivered
// payloads are forwarded to the inner radio when one is attached,
// which is how the MQTT ground feed sees bench traffic.
type Radio struct {
	lossRate float64
	rng      *rand.Rand
	inner    interface {
		Transmit(ctx context.Context, payload []byte) error
	}

	mu        sync.Mutex
	sent      int
	delivered int
}

// NewRadio creates a link with the given loss probability and seed.
func NewRadio(lossRate float64, seed int64) *Radio {
	return &Radio{
		lossRate: lossRate,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Forward attaches an inner radio that receives delivered payloads.
func (r *Radio) Forward(inner interface {
	Transmit(ctx context.Context, payload []byte) error
}) {
	r.inner = inner
}

// Counts returns how many transmissions were attempted and delivered.
func (r *Radio) Counts() (sent, delivered int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent, r.delivered
}

// Transmit implements platform.Radio.
func (r *Radio) Transmit(ctx context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent++
	if r.lossRate > 0 && r.rng.Float64() < r.lossRate {
		return ErrLinkLost
	}

	if r.inner != nil {
		if err := r.inner.Transmit(ctx, payload); err != nil {
			return err
		}
	}

	r.delivered++
	return nil
}
