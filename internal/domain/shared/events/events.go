package events

import "time"

// DomainEvent is implemented by every event an aggregate can record.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder buffers events raised by an aggregate until the persistence
// boundary drains them. Embedded by aggregate roots.
type Recorder struct {
	pending []DomainEvent
}

// Record appends an event to the uncommitted buffer.
func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

// PendingEvents returns a copy of the uncommitted events in record order.
func (r *Recorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// ClearEvents drops the buffer once events have been handed to the outbox
// inside the saving transaction.
func (r *Recorder) ClearEvents() {
	r.pending = nil
}
