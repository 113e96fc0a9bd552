package arena

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/roverduel/arena/internal/combat"
	"github.com/roverduel/arena/internal/protocol"
)

// phase is the tagged session-phase variant. Exactly one of the three
// concrete phases is held by the orchestrator at any instant, which makes the
// "never two sessions, never two confirmations" rule structural rather than
// conventional.
type phase interface {
	phaseName() string
}

type idlePhase struct{}

// confirmingPhase holds the single system-wide pending confirmation.
type confirmingPhase struct {
	pending *pendingConfirmation
}

// activePhase holds the single system-wide active session.
type activePhase struct {
	session *session
}

func (idlePhase) phaseName() string       { return "idle" }
func (confirmingPhase) phaseName() string { return "confirming" }
func (activePhase) phaseName() string     { return "active" }

// pendingConfirmation tracks a promoted candidate awaiting confirm_match.
// The id guards every timer and verification callback: a callback whose
// pending id no longer matches the live phase is stale and discarded.
type pendingConfirmation struct {
	id        string
	entry     queueEntry
	timer     clockwork.Timer
	verifying bool
}

// session is the single active play session.
type session struct {
	id        string
	name      string
	connID    string
	engine    *combat.Engine
	score     int
	ranked    bool
	payerKey  string
	startedAt time.Time
	duration  time.Duration
	stop      chan struct{}
}

// queueEntry is one waiting participant.
type queueEntry struct {
	name    string
	connID  string
	loadout *protocol.Loadout
}

// queue is the strict-FIFO waiting list. Insertion order is the sole
// priority rule.
type queue struct {
	entries []queueEntry
}

// push appends an entry unless the connection is already queued; duplicate
// joins are no-ops.
func (q *queue) push(e queueEntry) bool {
	for _, existing := range q.entries {
		if existing.connID == e.connID {
			return false
		}
	}
	q.entries = append(q.entries, e)
	return true
}

// pop removes and returns the queue head.
func (q *queue) pop() (queueEntry, bool) {
	if len(q.entries) == 0 {
		return queueEntry{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

// remove drops the entry for connID, if queued.
func (q *queue) remove(connID string) bool {
	for i, e := range q.entries {
		if e.connID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// names returns the display names in queue order.
func (q *queue) names() []string {
	names := make([]string, len(q.entries))
	for i, e := range q.entries {
		names[i] = e.name
	}
	return names
}

func (q *queue) len() int { return len(q.entries) }
