package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"

	"goalietron/lib/goalstore"
	"goalietron/lib/serviceutil"
	"goalietron/lib/telemetry"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The config file to read.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	config, err := readConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	t := initTelemetry(ctx, config, *verbose)
	defer t.Shutdown(context.Background())

	client, err := config.OpenClient(telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("init patreon client", err)
	}
	defer client.Close()

	res, err := client.LoadCustomGoalsFromFile(config.GoalsFile)
	if errors.Is(err, goalstore.ErrGoalsFileNotFound) {
		slog.Info("no goals file, starting without custom goals", "path", config.GoalsFile)
	} else if err != nil {
		serviceutil.Fatal("load goals file", err)
	} else {
		slog.Info("loaded custom goals", "accepted", res.Accepted, "dropped", res.Dropped)
	}

	err = serviceutil.StartHttpServer(ctx, config.Port, NewServer(client).Handler())
	if err != nil {
		serviceutil.Fatal("http server", err)
	}
}
