package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var seed int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workspace manager loop",
		Long: `Run the workspace manager event loop.

The loop consumes window and monitor change notifications, re-tiles the
active workspace after the debounce window, and evaluates placement rules
for new windows. It stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			for i := 0; i < seed; i++ {
				container.Driver().AddWindow(window.Snapshot{
					Handle: window.Handle(fmt.Sprintf("seed-%d", i+1)),
					AppID:  "com.tilekit.seed",
					Title:  fmt.Sprintf("Seed Window %d", i+1),
					Frame:  geometry.NewRect(float64(40*i), float64(30*i), 800, 600),
				})
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			formatter := GetFormatter()
			formatter.Info("Workspace manager running; press Ctrl+C to stop.")

			if err := container.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("manager loop failed: %w", err)
			}

			formatter.Info("Workspace manager stopped.")
			return nil
		},
	}

	cmd.Flags().IntVar(&seed, "seed-windows", 0, "add this many simulated windows before starting")

	return cmd
}
