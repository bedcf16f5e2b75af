package sim

// TimeTeller reports the current virtual time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler schedules future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine drives a discrete-event simulation.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes events until no event is left.
	Run() error

	// Pause suspends event processing until Continue is called. The
	// monitor uses the pair to freeze a running simulation.
	Pause()
	Continue()
}
