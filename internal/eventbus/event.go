package eventbus

import "time"

// Notification task lifecycle events published by the scheduler.
const (
	TaskDelivered      = "notification.task.delivered"
	TaskUndelivered    = "notification.task.undelivered"
	TaskDropped        = "notification.task.dropped"
	TaskRetryScheduled = "notification.task.retry_scheduled"
	TaskDeadLettered   = "notification.task.dead_lettered"
)

// DeadLetterReplayed is published by the service layer when a dead letter is
// re-enqueued.
const DeadLetterReplayed = "notification.dead_letter.replayed"

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)

// Filter returns a listener that forwards only events of the given types.
func Filter(l Listener, types ...string) Listener {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(e Event) {
		if _, ok := set[e.Type]; ok {
			l(e)
		}
	}
}
