//go:build linux

package gpio

import (
	"fmt"
	"sync"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// CharDev drives lines through the GPIO character device.
type CharDev struct {
	chip  *gpiod.Chip
	lines map[int]*gpiod.Line
	mu    sync.Mutex
}

func OpenCharDev(chipName string) (*CharDev, error) {
	chip, err := gpiod.NewChip(chipName, gpiod.WithConsumer("relay-controller"))
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", chipName, err)
	}
	return &CharDev{chip: chip, lines: make(map[int]*gpiod.Line)}, nil
}

// Drive requests the line as an output on first use and sets its value after that.
func (c *CharDev) Drive(pin int, high bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := 0
	if high {
		value = 1
	}

	line, ok := c.lines[pin]
	if !ok {
		var err error
		line, err = c.chip.RequestLine(pin, gpiod.AsOutput(value))
		if err != nil {
			return fmt.Errorf("request output pin %d: %w", pin, err)
		}
		c.lines[pin] = line
		return nil
	}

	if err := line.SetValue(value); err != nil {
		return fmt.Errorf("set pin %d: %w", pin, err)
	}
	return nil
}

func (c *CharDev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	c.lines = make(map[int]*gpiod.Line)

	if err := c.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
