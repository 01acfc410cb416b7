package main

import (
	"goalietron/lib/configuration"
	"goalietron/lib/configutil"
)

const defaultPort = 9120

type Config struct {
	configuration.Patreon
	Port int `json:"port"`
	// PerfStatsSeconds is the interval of process gauges, 0 disables them.
	PerfStatsSeconds int `json:"perf_stats_seconds"`
}

func readConfig(name string) (Config, error) {
	return configutil.ReadConfigWithDefaults(name, Config{
		Patreon: configuration.DefaultPatreon(),
		Port:    defaultPort,
	})
}
