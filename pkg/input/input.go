// Package input delivers key events from the platform to an event sink.
// Sinks are invoked from the watcher goroutine, never from the caller.
package input

import "time"

type Event struct {
	Key     uint16
	Release bool
	Time    time.Time
}

type Sink interface {
	HandleEvent(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) HandleEvent(ev Event) { f(ev) }
