package hardware

import (
	"fmt"
	"log/slog"

	"github.com/warthog618/go-gpiocdev"
)

// Triggerer is woken by the interrupt line
type Triggerer interface {
	Trigger()
}

// InterruptLine watches the accelerometer INT pin and requests an
// immediate poll cycle on every alert
type InterruptLine struct {
	line *gpiocdev.Line
	log  *slog.Logger
}

// NewInterruptLine requests offset on chip as a falling edge input.
// The MMA7660 drives INT active low.
func NewInterruptLine(chip string, offset int, target Triggerer, log *slog.Logger) (*InterruptLine, error) {
	handler := func(evt gpiocdev.LineEvent) {
		log.Debug("interrupt edge", "offset", evt.Offset, "seqno", evt.Seqno)
		target.Trigger()
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer("mma7660-service"),
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request interrupt line %s:%d: %w", chip, offset, err)
	}

	log.Info("watching interrupt line", "chip", chip, "offset", offset)
	return &InterruptLine{line: line, log: log}, nil
}

// Close releases the line
func (i *InterruptLine) Close() error {
	return i.line.Close()
}
