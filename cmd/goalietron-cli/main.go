package main

import (
	"context"

	"goalietron/cmd/goalietron-cli/commands"
	"goalietron/lib/serviceutil"
	"goalietron/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "goalietron-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
