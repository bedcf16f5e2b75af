// Package sim provides the discrete-event kernel that the SPI datapath model
// is built on. Components update once per clock-domain tick, always reading
// the state left by the previous tick.
package sim

// VTimeInSec is virtual time in the simulated space, in seconds.
type VTimeInSec float64

// An Event is something that will happen at a future virtual time.
type Event interface {
	// Time returns the virtual time at which the event triggers.
	Time() VTimeInSec

	// Handler returns the handler that processes the event.
	Handler() Handler

	// IsSecondary marks events that must run after all same-time primary
	// events. Connections use secondary events so that messages sent in a
	// cycle are forwarded in the same cycle, after every component ticked.
	IsSecondary() bool
}

// A Handler processes events. An event may only be scheduled by its own
// handler, so a handler never mutates another handler's state directly.
type Handler interface {
	Handle(e Event) error
}

// EventBase carries the fields common to all events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates an EventBase that triggers at time t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler

	return e
}

// Time returns the trigger time of the event.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}
