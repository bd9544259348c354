package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chaosinthecrd/tag/internal/tag/app"
	"github.com/chaosinthecrd/tag/internal/tag/process"
	"github.com/chaosinthecrd/tag/pkg/util/signals"
)

func main() {
	// Children spawned by the fork activity re-enter here and never return.
	process.HandleChild()

	err := signals.Execute(func(ctx context.Context) error {
		return app.NewCommand(ctx).Execute()
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
