package sensor

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	ErrDeviceNotReady   = errors.New("device not ready")
	ErrChannelSetup     = errors.New("channel setup failed")
	ErrConversionFailed = errors.New("conversion failed")
	ErrScalingFailed    = errors.New("scaling failed")
)

// ReadError reports a failed read of one channel. Code is a negative
// errno value, -EIO when the driver gave none.
type ReadError struct {
	Kind    Kind
	Channel int
	Op      error
	Code    int
	Err     error
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("%s channel %d: %v (%d)", e.Kind, e.Channel, e.Op, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Op}
	}
	return []error{e.Op, e.Err}
}

func newReadError(kind Kind, channel int, op, err error) *ReadError {
	return &ReadError{Kind: kind, Channel: channel, Op: op, Code: errnoCode(err), Err: err}
}

// InitError is a device or channel that could not be brought up. It is
// fatal before the acquisition loop starts.
type InitError struct {
	Device string
	Err    error
}

func (e *InitError) Error() string { return e.Device + ": " + e.Err.Error() }

func (e *InitError) Unwrap() error { return e.Err }

// Code returns the negative errno carried by err, or -EIO.
func Code(err error) int {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Code
	}
	return errnoCode(err)
}

func errnoCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	return -int(syscall.EIO)
}
