package bus

import "time"

// Event kinds published by the core components.
const (
	KindFeedMessage   = "feed.message"        // validated inbound message, payload *store.Message
	KindFeedStatus    = "feed.status_changed" // connector state transition, payload status.StatusChange
	KindMessageStored = "message.stored"      // message persisted, payload map[string]string{dialog_id, msg_id}
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
