package startup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thatsimonsguy/relay-controller/db"
	"github.com/thatsimonsguy/relay-controller/internal/config"
	"github.com/thatsimonsguy/relay-controller/internal/gpio"
	"github.com/thatsimonsguy/relay-controller/internal/model"
	"github.com/thatsimonsguy/relay-controller/internal/nvstore"
	"github.com/thatsimonsguy/relay-controller/internal/pinctrl"
	"github.com/thatsimonsguy/relay-controller/internal/store"
)

// OpenStore builds the config store on the configured backing. The returned
// close func releases whatever the backing holds open.
func OpenStore(cfg config.Storage) (*nvstore.ConfigStore, func() error, error) {
	var backing nvstore.Backing
	closer := func() error { return nil }

	switch cfg.Driver {
	case "file":
		backing = store.New(cfg.Path)
	case "sqlite":
		dbConn, err := db.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		backing = db.NewNVRAM(dbConn)
		closer = dbConn.Close
	case "memory":
		backing = nvstore.NewMemoryBacking(nil)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	return nvstore.New(nvstore.NewRegion(backing), cfg.RegionSize), closer, nil
}

// LastCommit reports when the configured backing was last written. The zero
// time means never; the memory driver always reports zero.
func LastCommit(cfg config.Storage) (time.Time, error) {
	switch cfg.Driver {
	case "file":
		return store.New(cfg.Path).UpdatedAt()
	case "sqlite":
		dbConn, err := db.Open(cfg.Path)
		if err != nil {
			return time.Time{}, err
		}
		defer dbConn.Close()
		return db.GetRegionUpdatedAt(dbConn)
	case "memory":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenRelays opens the configured GPIO driver and maps both relays onto it.
func OpenRelays(cfg config.Relays, safeMode bool) (*gpio.Relays, error) {
	var driver gpio.Driver

	switch cfg.Driver {
	case "gpiocdev":
		chip, err := gpio.OpenCharDev(cfg.Chip)
		if err != nil {
			return nil, err
		}
		driver = chip
	case "pinctrl":
		driver = pinctrl.NewDriver()
	default:
		return nil, fmt.Errorf("unknown relay driver %q", cfg.Driver)
	}

	return gpio.NewRelays(driver, *cfg.Relay1Pin, *cfg.Relay2Pin, *cfg.ActiveHigh, safeMode), nil
}

// WriteStartupScript writes a pinctrl script that puts both relay lines back
// to the levels in rec. Run at boot it restores the outputs before the
// controller itself has started.
func WriteStartupScript(path string, relays config.Relays, rec model.Record) error {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Relay GPIO levels at boot", "")

	pins := relayPins(relays)
	for _, ch := range model.Channels {
		level := rec.Level(ch)
		drive := "dl"
		if level.IsOn() == *relays.ActiveHigh {
			drive = "dh"
		}
		lines = append(lines, fmt.Sprintf("# %s %s", ch.Name(), level))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", pins[ch], drive))
		lines = append(lines, "")
	}

	contents := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(path, []byte(contents), 0755)
}

// InstallService writes the systemd unit that runs the controller binary.
func InstallService(unitPath, execPath, configFile string) error {
	unit := fmt.Sprintf(`[Unit]
Description=MQTT relay controller
After=network.target NetworkManager.service

[Service]
Type=simple
ExecStart=%s -config-file %s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, execPath, configFile)

	return os.WriteFile(unitPath, []byte(unit), 0644)
}

// readLevel is swapped in tests.
var readLevel = pinctrl.ReadLevel

// ReadOutputs reads both relay lines back through pinctrl and maps the line
// levels to relay levels with the configured polarity.
func ReadOutputs(relays config.Relays) (model.Record, error) {
	var rec model.Record
	pins := relayPins(relays)
	for _, ch := range model.Channels {
		high, err := readLevel(pins[ch])
		if err != nil {
			return model.Record{}, fmt.Errorf("read %s: %w", ch.Name(), err)
		}
		level := model.Off
		if high == *relays.ActiveHigh {
			level = model.On
		}
		rec.SetLevel(ch, level)
	}
	return rec, nil
}

func relayPins(relays config.Relays) map[model.Channel]int {
	return map[model.Channel]int{
		model.Relay1: *relays.Relay1Pin,
		model.Relay2: *relays.Relay2Pin,
	}
}
