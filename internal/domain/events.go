package domain

// EventKind names the cross-component events the store publishes.
type EventKind string

const (
	EventOrderCommitted EventKind = "order.committed"
	EventOrderCancelled EventKind = "order.cancelled"
)

// Event carries the order an event is about.
type Event struct {
	Kind  EventKind
	Order *Order
}
