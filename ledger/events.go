package ledger

import "sync"

// EventType identifies a ledger notification.
type EventType string

const (
	EventSetup           EventType = "setup"
	EventReceiverAdded   EventType = "receiver_added"
	EventReceiverRemoved EventType = "receiver_removed"
	EventShareUpdated    EventType = "share_updated"
	EventReceiverShrunk  EventType = "receiver_shrunk"
	EventClaimed         EventType = "claimed"
	EventScheduleUpdated EventType = "schedule_updated"
	EventPaused          EventType = "paused"
	EventUnpaused        EventType = "unpaused"
	EventSwept           EventType = "swept"
)

// Event is a ledger notification. Fields are populated per type; unused
// fields are zero.
type Event struct {
	Type          EventType
	ReceiverID    uint64
	NewReceiverID uint64 // receiver_shrunk: the created receiver
	Share         uint64
	Amount        uint64 // claimed/swept amount, or forfeited balance on removal
	Claimant      string
	Reference     uint64
	Token         string // swept token address
	To            string // sweep destination
	Timestamp     int64  // unix seconds, claims only
}

// EventSink receives ledger notifications. Emit is called after the state
// change has been committed, under the ledger's exclusive lock.
type EventSink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// RecordingSink collects events for inspection in tests.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *RecordingSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
