package console

import (
	"fmt"
	"io"
	"os"

	"github.com/ericogr/thermo-pressure-daq/pkg/output"
)

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return NewConsoleWriter(os.Stdout) }

func NewConsoleWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(r output.Report) error {
	for _, t := range r.Temperatures {
		var err error
		if t.Available {
			_, err = fmt.Fprintf(c.w, "Temperature%d: %.2f C\n", t.Channel, t.Celsius)
		} else {
			_, err = fmt.Fprintf(c.w, "Temperature%d: unavailable (%d)\n", t.Channel, t.Code)
		}
		if err != nil {
			return err
		}
	}
	if p := r.Pressure; p != nil {
		var err error
		if p.Available {
			_, err = fmt.Fprintf(c.w, "%.2f +- %.2f kPa\n", p.KPa, p.ErrorKPa)
		} else {
			_, err = fmt.Fprintf(c.w, "Pressure: unavailable (%d)\n", p.Code)
		}
		return err
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
