package ledger

import (
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

// TraceEvent is a status annotation attached to a block. Events are not
// covered by the block hash. Each one commits to the event before it, and
// the first one commits to the block hash.
type TraceEvent struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details"`
	Hash      string `json:"hash,omitempty"`
}

// NewTraceEvent constructs an uncommitted trace event stamped with the time.
func NewTraceEvent(now time.Time, status string, details string) TraceEvent {
	return TraceEvent{
		Status:    status,
		Timestamp: Timestamp(now),
		Details:   details,
	}
}

// commitment computes the hash linking this event to the previous one.
func (ev TraceEvent) commitment(prev string) string {
	return signature.Hash(
		[]byte(prev),
		[]byte(ev.Status),
		[]byte(ev.Timestamp),
		[]byte(ev.Details),
	)
}

// commitTrace returns a copy of the events with their commitments computed
// against the block hash.
func commitTrace(blockHash string, trace []TraceEvent) []TraceEvent {
	out := make([]TraceEvent, len(trace))

	prev := blockHash
	for i, ev := range trace {
		ev.Hash = ev.commitment(prev)
		out[i] = ev
		prev = ev.Hash
	}

	return out
}

// appendTrace commits a new event after the existing ones.
func appendTrace(b Block, ev TraceEvent) Block {
	prev := b.Hash
	if n := len(b.Trace); n > 0 {
		prev = b.Trace[n-1].Hash
	}

	ev.Hash = ev.commitment(prev)
	b.Trace = append(b.Trace, ev)

	return b
}
