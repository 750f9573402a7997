package main

import (
	"context"
	"errors"
	"os"
	"telenetapi/cmd/telenet-cli/commands"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "telenet-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer t.Shutdown(context.Background())
	}

	commands.ExecuteContext(ctx)
}
