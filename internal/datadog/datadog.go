package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/config"
)

var dogstatsd statsd.ClientInterface

func InitMetrics(cfg config.Datadog) {
	if !cfg.Enabled {
		log.Info().Msg("Datadog metrics disabled")
		return
	}

	client, err := statsd.New(cfg.AgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	client.Namespace = cfg.Namespace
	client.Tags = cfg.Tags
	dogstatsd = client

	log.Info().
		Str("addr", cfg.AgentAddr).
		Str("namespace", cfg.Namespace).
		Strs("tags", cfg.Tags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Gauge(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Incr(name string, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Incr(name, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
		}
	}
}

// BoolGauge reports 1 for true and 0 for false.
func BoolGauge(name string, value bool, tags ...string) {
	v := 0.0
	if value {
		v = 1.0
	}
	Gauge(name, v, tags...)
}
