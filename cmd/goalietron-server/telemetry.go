package main

import (
	"context"
	"time"

	"goalietron/lib/serviceutil"
	"goalietron/lib/telemetry"
)

func initTelemetry(ctx context.Context, config Config, verbose bool) telemetry.Telemetry {
	telemetry.InitSlog(verbose || config.Verbose)

	t, err := telemetry.SetupFromEnv(ctx, "goalietron-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	if config.PerfStatsSeconds > 0 {
		telemetry.InstrumentPerfStats(ctx, time.Duration(config.PerfStatsSeconds)*time.Second)
	}
	return t
}
