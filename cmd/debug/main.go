package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thatsimonsguy/relay-controller/internal/config"
	"github.com/thatsimonsguy/relay-controller/internal/model"
	"github.com/thatsimonsguy/relay-controller/internal/nvstore"
	"github.com/thatsimonsguy/relay-controller/system/startup"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var storage config.Storage
	var command, relay, level, out, execPath, configFile string
	var relay1Pin, relay2Pin int
	var activeHigh bool
	flag.StringVar(&storage.Driver, "driver", "file", "Storage driver: file, sqlite, memory")
	flag.StringVar(&storage.Path, "path", "data/nvram.bin", "Path to the region image or SQLite database")
	flag.IntVar(&storage.RegionSize, "region-size", nvstore.DefaultRegionSize, "Size of the non-volatile region")
	flag.StringVar(&command, "cmd", "", "Command to run: dump, levels, erase, set-relay, boot-script, install-service")
	flag.StringVar(&relay, "relay", "", "Relay for set-relay: relay1 or relay2")
	flag.StringVar(&level, "level", "", "Level for set-relay: on or off")
	flag.StringVar(&out, "out", "", "Output path for boot-script and install-service")
	flag.IntVar(&relay1Pin, "relay1-pin", 33, "GPIO line of relay 1")
	flag.IntVar(&relay2Pin, "relay2-pin", 25, "GPIO line of relay 2")
	flag.BoolVar(&activeHigh, "active-high", true, "Relays switch on with a high line")
	flag.StringVar(&execPath, "exec", "/usr/local/bin/relay-controller", "Controller binary for install-service")
	flag.StringVar(&configFile, "config-file", "/etc/relay-controller/config.json", "Controller config for install-service")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of relay-debug:")
		fmt.Println("  -driver string\tStorage driver: file, sqlite, memory (default 'file')")
		fmt.Println("  -path string\tPath to the region image or SQLite database (default 'data/nvram.bin')")
		fmt.Println("  -cmd string\tCommand to run: dump, levels, erase, set-relay, boot-script, install-service")
		fmt.Println("  -relay string\tRelay for set-relay: relay1 or relay2")
		fmt.Println("  -level string\tLevel for set-relay: on or off")
		fmt.Println("  -out string\tOutput path for boot-script and install-service")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	configStore, closeStore, err := startup.OpenStore(storage)
	if err != nil {
		fmt.Printf("Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	relays := config.Relays{Relay1Pin: &relay1Pin, Relay2Pin: &relay2Pin, ActiveHigh: &activeHigh}

	switch command {
	case "dump":
		err = dump(configStore, storage)
	case "levels":
		err = levels(configStore, relays)
	case "erase":
		_, err = configStore.Erase()
	case "set-relay":
		err = setRelay(configStore, relay, level)
	case "boot-script", "install-service":
		if out == "" {
			fmt.Println("Error: -out is required")
			os.Exit(1)
		}
		if command == "install-service" {
			err = startup.InstallService(out, execPath, configFile)
			break
		}
		var rec model.Record
		if rec, err = configStore.Load(); err == nil {
			err = startup.WriteStartupScript(out, relays, rec)
		}
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func dump(s *nvstore.ConfigStore, storage config.Storage) error {
	rec, err := s.Load()
	if err != nil {
		return err
	}
	fmt.Printf("valid:  %d (initialized: %t)\n", rec.Valid, rec.IsValid())
	fmt.Printf("relay1: %d (%s)\n", rec.Relay1, rec.Relay1)
	fmt.Printf("relay2: %d (%s)\n", rec.Relay2, rec.Relay2)

	committed, err := startup.LastCommit(storage)
	if err != nil {
		return err
	}
	if committed.IsZero() {
		fmt.Printf("%s %s: never committed\n", storage.Driver, storage.Path)
	} else {
		fmt.Printf("%s %s: last commit %s\n", storage.Driver, storage.Path, committed.Format(time.RFC3339))
	}
	return nil
}

// levels prints the stored relay levels next to what the GPIO lines read.
func levels(s *nvstore.ConfigStore, relays config.Relays) error {
	stored, err := s.Load()
	if err != nil {
		return err
	}
	lines, err := startup.ReadOutputs(relays)
	if err != nil {
		return err
	}
	for _, ch := range model.Channels {
		mismatch := ""
		if stored.Level(ch).IsOn() != lines.Level(ch).IsOn() {
			mismatch = "  MISMATCH"
		}
		fmt.Printf("%s: stored %s, line %s%s\n", ch.Name(), stored.Level(ch), lines.Level(ch), mismatch)
	}
	return nil
}

// setRelay rewrites one channel in the stored record, the same full-record
// save the controller performs for a command.
func setRelay(s *nvstore.ConfigStore, relay, level string) error {
	var ch model.Channel
	switch relay {
	case "relay1":
		ch = model.Relay1
	case "relay2":
		ch = model.Relay2
	default:
		return fmt.Errorf("unknown relay %q", relay)
	}

	var l model.Level
	switch level {
	case "on":
		l = model.On
	case "off":
		l = model.Off
	default:
		return fmt.Errorf("unknown level %q", level)
	}

	rec, err := s.Load()
	if err != nil {
		return err
	}
	if !rec.IsValid() {
		rec = model.Record{}
	}
	rec.SetLevel(ch, l)
	return s.Save(&rec)
}
