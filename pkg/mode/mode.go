// Package mode holds the display mode selected with the control key.
package mode

import (
	"log"
	"sync/atomic"

	"github.com/ericogr/thermo-pressure-daq/pkg/input"
)

// Count is the number of display modes.
const Count = 3

// Selector is written by the input watcher and read by the acquisition
// loop. A release of the control key advances the mode.
type Selector struct {
	key     uint16
	current atomic.Int32
}

func NewSelector(key uint16) *Selector {
	return &Selector{key: key}
}

func (s *Selector) HandleEvent(ev input.Event) {
	if ev.Key != s.key {
		log.Printf("spurious input event: key %d", ev.Key)
		return
	}
	if !ev.Release {
		log.Printf("button press begin")
		return
	}
	for {
		cur := s.current.Load()
		if s.current.CompareAndSwap(cur, (cur+1)%Count) {
			log.Printf("mode: %d", (cur+1)%Count)
			return
		}
	}
}

func (s *Selector) Current() int { return int(s.current.Load()) }

var _ input.Sink = (*Selector)(nil)
