package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int {
	return &i
}

func validConfig() Config {
	cfg := Config{
		ClientID: "esp32lr20",
		Network:  Network{SSID: "sciencecamp08", Password: "camperfurt"},
		MQTT:     MQTT{Broker: "192.168.20.1", Username: "admin", Password: "root"},
		Relays:   Relays{Relay1Pin: intPtr(33), Relay2Pin: intPtr(25)},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.validate() // should not panic
}

func TestApplyDefaults_MatchFirmwareTimings(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 30, cfg.Network.ConnectAttempts)
	assert.Equal(t, 30*time.Second, cfg.LinkReconnectInterval())
	assert.Equal(t, 5*time.Second, cfg.SessionReconnectInterval())
	assert.Equal(t, 10*time.Second, cfg.StateInterval())
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "tcp://192.168.20.1:1883", cfg.BrokerURL())
	assert.True(t, *cfg.Relays.ActiveHigh)
	assert.Equal(t, "file", cfg.Storage.Driver)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	activeLow := false
	cfg := Config{
		Network: Network{ReconnectIntervalMs: 1000},
		Relays:  Relays{ActiveHigh: &activeLow, Driver: "pinctrl"},
	}
	cfg.applyDefaults()

	assert.Equal(t, time.Second, cfg.LinkReconnectInterval())
	assert.False(t, *cfg.Relays.ActiveHigh)
	assert.Equal(t, "pinctrl", cfg.Relays.Driver)
}

func TestValidate_Missing(t *testing.T) {
	cfg := validConfig()
	cfg.Relays.Relay2Pin = nil

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to missing relay pin, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_PinConflict(t *testing.T) {
	cfg := validConfig()
	cfg.Relays.Relay2Pin = intPtr(33)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to conflicting pin numbers, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_UnknownStorageDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "eeprom"

	assert.Panics(t, cfg.validate)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("whatever"))
}
