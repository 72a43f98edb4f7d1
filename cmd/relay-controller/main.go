package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/config"
	"github.com/thatsimonsguy/relay-controller/internal/controller"
	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/logging"
	"github.com/thatsimonsguy/relay-controller/internal/mqtt"
	"github.com/thatsimonsguy/relay-controller/internal/netlink"
	"github.com/thatsimonsguy/relay-controller/internal/nmcli"
	"github.com/thatsimonsguy/relay-controller/internal/notifications"
	"github.com/thatsimonsguy/relay-controller/internal/session"
	"github.com/thatsimonsguy/relay-controller/system/shutdown"
	"github.com/thatsimonsguy/relay-controller/system/startup"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("client_id", cfg.ClientID).
		Str("storage", cfg.Storage.Driver).
		Str("relay_driver", cfg.Relays.Driver).
		Msg("Starting relay controller")

	datadog.InitMetrics(cfg.Datadog)
	notifications.Init(cfg.NtfyTopic)

	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED, relay outputs will not be driven")
	}

	configStore, closeStore, err := startup.OpenStore(cfg.Storage)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open config storage")
		return
	}
	defer closeStore()

	relays, err := startup.OpenRelays(cfg.Relays, cfg.SafeMode)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open relay outputs")
		return
	}
	defer relays.Close()

	network := netlink.NewSupervisor(
		nmcli.New(cfg.Network.Interface),
		cfg.Network.SSID,
		cfg.Network.Password,
		cfg.Network.ConnectAttempts,
		cfg.LinkReconnectInterval(),
	)

	broker := mqtt.New(cfg.BrokerURL(), cfg.ConnectTimeout(), cfg.MQTT.InboundQueue)
	sess := session.New(broker, session.Credentials{
		ClientID: cfg.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, cfg.SessionReconnectInterval())

	ctrl := controller.New(configStore, network, sess, relays, controller.Options{
		StateInterval: cfg.StateInterval(),
		TickIdle:      cfg.TickIdle(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Relay controller exited")
	}
}
