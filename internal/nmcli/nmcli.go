// Package nmcli implements the wireless link on top of the NetworkManager CLI.
package nmcli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// run executes an nmcli invocation and returns its combined output. Swapped in tests.
var run = func(args ...string) ([]byte, error) {
	return exec.Command("nmcli", args...).CombinedOutput()
}

// sysfsNet is where the kernel reports interface state. Overridden in tests.
var sysfsNet = "/sys/class/net"

type Link struct {
	iface string
}

func New(iface string) *Link {
	return &Link{iface: iface}
}

// Connect asks NetworkManager to join ssid and returns without waiting for
// activation.
func (l *Link) Connect(ssid, password string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", l.iface)

	if out, err := run(args...); err != nil {
		return fmt.Errorf("nmcli wifi connect failed: %s (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Status reads the interface operstate straight from sysfs. It is polled every
// loop iteration, so it does not shell out.
func (l *Link) Status() bool {
	data, err := os.ReadFile(filepath.Join(sysfsNet, l.iface, "operstate"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "up"
}

func (l *Link) Disconnect() error {
	if out, err := run("device", "disconnect", l.iface); err != nil {
		return fmt.Errorf("nmcli disconnect failed: %s (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Reconnect re-activates the interface without waiting for the result.
func (l *Link) Reconnect() error {
	if out, err := run("--wait", "0", "device", "connect", l.iface); err != nil {
		return fmt.Errorf("nmcli connect failed: %s (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Address returns the first IPv4 address of the interface, or "" if it has none.
func (l *Link) Address() string {
	out, err := run("-g", "IP4.ADDRESS", "device", "show", l.iface)
	if err != nil {
		return ""
	}
	return firstAddress(string(out))
}

func firstAddress(output string) string {
	line := strings.TrimSpace(output)
	if i := strings.IndexAny(line, "|\n"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
