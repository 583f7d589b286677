package ecs

// EventType identifies world events.
type EventType string

const (
	EventTransition EventType = "transition"
	EventMark       EventType = "mark"
	EventEmit       EventType = "emit"
	EventSpawn      EventType = "spawn"
	EventHit        EventType = "hit"
	EventDeflect    EventType = "deflect"
	EventDeath      EventType = "death"
)

// Event is a generic ECS event payload.
type Event struct {
	Type   EventType
	Entity Entity
	Data   any
}

// TransitionData is the payload of EventTransition.
type TransitionData struct {
	From string
	To   string
}

// MarkData is the payload of EventMark.
type MarkData struct {
	State string
	Mark  int
}

// HitData is the payload of EventHit and EventDeflect.
type HitData struct {
	Kind   string
	Amount int
	Health int
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}
