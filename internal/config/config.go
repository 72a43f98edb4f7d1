package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Network struct {
	SSID                string `json:"ssid"`
	Password            string `json:"password"`
	Interface           string `json:"interface"`
	ConnectAttempts     int    `json:"connect_attempts"`
	ReconnectIntervalMs int    `json:"reconnect_interval_ms"`
}

type MQTT struct {
	Broker              string `json:"broker"`
	Port                int    `json:"port"`
	Username            string `json:"username"`
	Password            string `json:"password"`
	ReconnectIntervalMs int    `json:"reconnect_interval_ms"`
	StateIntervalMs     int    `json:"state_interval_ms"`
	ConnectTimeoutMs    int    `json:"connect_timeout_ms"`
	InboundQueue        int    `json:"inbound_queue"`
}

type Relays struct {
	Driver     string `json:"driver"` // "gpiocdev" or "pinctrl"
	Chip       string `json:"chip"`
	Relay1Pin  *int   `json:"relay1_pin"`
	Relay2Pin  *int   `json:"relay2_pin"`
	ActiveHigh *bool  `json:"active_high"`
}

type Storage struct {
	Driver     string `json:"driver"` // "file", "sqlite" or "memory"
	Path       string `json:"path"`
	RegionSize int    `json:"region_size"`
}

type Datadog struct {
	Enabled   bool     `json:"enabled"`
	AgentAddr string   `json:"agent_addr"`
	Namespace string   `json:"namespace"`
	Tags      []string `json:"tags"`
}

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level

	ClientID   string `json:"client_id"`
	LogFile    string `json:"log_file"`
	SafeMode   bool   `json:"safe_mode"`
	TickIdleMs int    `json:"tick_idle_ms"`
	NtfyTopic  string `json:"ntfy_topic"`

	Network Network `json:"network"`
	MQTT    MQTT    `json:"mqtt"`
	Relays  Relays  `json:"relays"`
	Storage Storage `json:"storage"`
	Datadog Datadog `json:"datadog"`
}

func Load() Config {
	var cfg Config
	var logLevel string
	var safeMode bool

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&safeMode, "safe-mode", false, "Never drive relay outputs")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}
	if safeMode {
		cfg.SafeMode = true
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.LogFile == "" {
		cfg.LogFile = "/var/log/relay-controller.log"
	}
	if cfg.TickIdleMs == 0 {
		cfg.TickIdleMs = 10
	}

	if cfg.Network.Interface == "" {
		cfg.Network.Interface = "wlan0"
	}
	if cfg.Network.ConnectAttempts == 0 {
		cfg.Network.ConnectAttempts = 30
	}
	if cfg.Network.ReconnectIntervalMs == 0 {
		cfg.Network.ReconnectIntervalMs = 30000
	}

	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = 1883
	}
	if cfg.MQTT.ReconnectIntervalMs == 0 {
		cfg.MQTT.ReconnectIntervalMs = 5000
	}
	if cfg.MQTT.StateIntervalMs == 0 {
		cfg.MQTT.StateIntervalMs = 10000
	}
	if cfg.MQTT.ConnectTimeoutMs == 0 {
		cfg.MQTT.ConnectTimeoutMs = 3000
	}
	if cfg.MQTT.InboundQueue == 0 {
		cfg.MQTT.InboundQueue = 32
	}

	if cfg.Relays.Driver == "" {
		cfg.Relays.Driver = "gpiocdev"
	}
	if cfg.Relays.Chip == "" {
		cfg.Relays.Chip = "gpiochip0"
	}
	if cfg.Relays.ActiveHigh == nil {
		activeHigh := true
		cfg.Relays.ActiveHigh = &activeHigh
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/nvram.bin"
	}
	if cfg.Storage.RegionSize == 0 {
		cfg.Storage.RegionSize = 4095
	}

	if cfg.Datadog.AgentAddr == "" {
		cfg.Datadog.AgentAddr = "127.0.0.1:8125"
	}
	if cfg.Datadog.Namespace == "" {
		cfg.Datadog.Namespace = "relay_controller."
	}
}

func (cfg *Config) validate() {
	var missingFields []string

	if cfg.ClientID == "" {
		missingFields = append(missingFields, "client_id")
	}
	if cfg.Network.SSID == "" {
		missingFields = append(missingFields, "network.ssid")
	}
	if cfg.MQTT.Broker == "" {
		missingFields = append(missingFields, "mqtt.broker")
	}
	if cfg.Relays.Relay1Pin == nil {
		missingFields = append(missingFields, "relays.relay1_pin")
	}
	if cfg.Relays.Relay2Pin == nil {
		missingFields = append(missingFields, "relays.relay2_pin")
	}
	if len(missingFields) > 0 {
		panic("Missing required config fields: " + strings.Join(missingFields, ", "))
	}

	if *cfg.Relays.Relay1Pin == *cfg.Relays.Relay2Pin {
		panic(fmt.Sprintf("Conflicting relay pins: relays.relay1_pin and relays.relay2_pin both use pin %d", *cfg.Relays.Relay1Pin))
	}

	switch cfg.Relays.Driver {
	case "gpiocdev", "pinctrl":
	default:
		panic("Unknown relay driver: " + cfg.Relays.Driver)
	}
	switch cfg.Storage.Driver {
	case "file", "sqlite", "memory":
	default:
		panic("Unknown storage driver: " + cfg.Storage.Driver)
	}
	if cfg.Storage.RegionSize < 3 {
		panic(fmt.Sprintf("storage.region_size %d is smaller than the config record", cfg.Storage.RegionSize))
	}
}

// BrokerURL is the paho server URL for the configured broker.
func (cfg *Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Broker, cfg.MQTT.Port)
}

func (cfg *Config) LinkReconnectInterval() time.Duration {
	return time.Duration(cfg.Network.ReconnectIntervalMs) * time.Millisecond
}

func (cfg *Config) SessionReconnectInterval() time.Duration {
	return time.Duration(cfg.MQTT.ReconnectIntervalMs) * time.Millisecond
}

func (cfg *Config) StateInterval() time.Duration {
	return time.Duration(cfg.MQTT.StateIntervalMs) * time.Millisecond
}

func (cfg *Config) ConnectTimeout() time.Duration {
	return time.Duration(cfg.MQTT.ConnectTimeoutMs) * time.Millisecond
}

func (cfg *Config) TickIdle() time.Duration {
	return time.Duration(cfg.TickIdleMs) * time.Millisecond
}
