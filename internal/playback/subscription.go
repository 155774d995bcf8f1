package playback

import "time"

// eventBufferSize bounds how far a subscriber may lag before events
// are dropped.
const eventBufferSize = 16

// Event is a single playback notification. Exactly one field is
// non-nil.
type Event struct {
	State    *StateChange
	Track    *TrackChange
	Position *PositionChange
	Queue    *QueueChange
	Mode     *ModeChange
	Error    *ErrorEvent
}

// Subscription delivers playback events on one multiplexed channel.
// Delivery never blocks the controller: a subscriber that falls more
// than eventBufferSize events behind loses the overflow.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh chan Event
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop reading.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) publish(e Event) {
	select {
	case s.eventCh <- e:
	default:
	}
}

func (s *Subscription) sendState(e StateChange) { s.publish(Event{State: &e}) }

func (s *Subscription) sendTrack(e TrackChange) { s.publish(Event{Track: &e}) }

func (s *Subscription) sendPosition(pos time.Duration) {
	s.publish(Event{Position: &PositionChange{Position: pos}})
}

func (s *Subscription) sendQueue(e QueueChange) { s.publish(Event{Queue: &e}) }

func (s *Subscription) sendMode(e ModeChange) { s.publish(Event{Mode: &e}) }

func (s *Subscription) sendError(e ErrorEvent) { s.publish(Event{Error: &e}) }
