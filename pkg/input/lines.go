package input

import (
	"bufio"
	"context"
	"io"
	"time"
)

// WatchLines emits a press and a release of key for every line read from r.
// It is the key source of the simulated sensor setup. If r is an io.Closer
// it is closed when ctx is done, which unblocks a pending read.
func WatchLines(ctx context.Context, r io.Reader, key uint16, sink Sink) error {
	stop := make(chan struct{})
	defer close(stop)
	if c, ok := r.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				_ = c.Close()
			case <-stop:
			}
		}()
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		now := time.Now()
		sink.HandleEvent(Event{Key: key, Time: now})
		sink.HandleEvent(Event{Key: key, Release: true, Time: now})
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}
