package input

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgePoll bounds WaitForEdge so a cancelled context is noticed.
const edgePoll = 100 * time.Millisecond

// Button is a push button on a GPIO line.
type Button struct {
	pin       gpio.PinIn
	key       uint16
	activeLow bool
	debounce  time.Duration
}

// NewButton configures pin as an input with edge detection. The line must
// be quiet for debounce before a level change is reported; zero disables
// debouncing.
func NewButton(pin gpio.PinIn, key uint16, activeLow bool, debounce time.Duration) (*Button, error) {
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("button %s: %w", pin, err)
	}
	return &Button{pin: pin, key: key, activeLow: activeLow, debounce: debounce}, nil
}

func (b *Button) pressed() bool {
	return (b.pin.Read() == gpio.High) != b.activeLow
}

// Watch forwards press and release events to sink until ctx is done. Only
// settled level changes produce an event, so a bouncing contact yields one
// press and one release.
func (b *Button) Watch(ctx context.Context, sink Sink) {
	pressed := b.pressed()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !b.pin.WaitForEdge(edgePoll) {
			continue
		}
		for b.debounce > 0 && b.pin.WaitForEdge(b.debounce) {
		}
		now := b.pressed()
		if now == pressed {
			continue
		}
		pressed = now
		sink.HandleEvent(Event{Key: b.key, Release: !pressed, Time: time.Now()})
	}
}
