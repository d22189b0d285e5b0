package feed

import (
	"sync"

	"dailyrise_engine/internal/model"

	"github.com/google/uuid"
)

// normalizer turns at-least-once feed deliveries into forward-only state
// transitions. A payload whose status does not advance the last status seen
// for that challenge is dropped, so redeliveries and polling overlap are
// no-ops.
type normalizer struct {
	mu   sync.Mutex
	last map[uuid.UUID]model.ChallengeStatus
}

func newNormalizer() *normalizer {
	return &normalizer{last: make(map[uuid.UUID]model.ChallengeStatus)}
}

func (n *normalizer) apply(p payload) (Event, bool) {
	if !p.Status.Valid() {
		return Event{}, false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	prev, seen := n.last[p.ID]
	if seen && !prev.Advances(p.Status) {
		return Event{}, false
	}
	n.last[p.ID] = p.Status

	return p.toEvent()
}
