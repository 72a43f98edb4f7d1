package pinctrl

import (
	"fmt"
	"os/exec"
	"strings"
)

// run executes a pinctrl invocation and returns its combined output. Swapped in tests.
var run = func(args ...string) ([]byte, error) {
	return exec.Command("pinctrl", args...).CombinedOutput()
}

// ReadLevel performs a fast read of the logic level of a pin using `pinctrl lev <pin>`
func ReadLevel(pin int) (bool, error) {
	out, err := run("lev", fmt.Sprint(pin))
	if err != nil {
		return false, fmt.Errorf("failed to read level for pin %d: %w", pin, err)
	}
	return parseLevel(string(out))
}

func parseLevel(output string) (bool, error) {
	trimmed := strings.TrimSpace(output)
	switch trimmed {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected output from pinctrl lev: %q", trimmed)
	}
}

// SetPin applies one or more pinctrl set options to the specified GPIO pin
// Example: SetPin(10, "op", "pn", "dh") sets pin 10 as output, no pull, drive high
func SetPin(pin int, opts ...string) error {
	args := []string{"set", fmt.Sprint(pin)}
	args = append(args, opts...)
	out, err := run(args...)
	if err != nil {
		return fmt.Errorf("pinctrl set failed: %s (output: %s)", err, string(out))
	}
	return nil
}

// Driver drives relay lines through the pinctrl CLI.
type Driver struct{}

func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Drive(pin int, high bool) error {
	drive := "dl"
	if high {
		drive = "dh"
	}
	return SetPin(pin, "op", "pn", drive)
}

func (d *Driver) Close() error {
	return nil
}
