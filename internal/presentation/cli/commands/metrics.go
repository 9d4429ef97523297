package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/presentation/cli/output"
)

// NewMetricsCmd creates the metrics command group.
func NewMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect switch metrics",
		Long: `Inspect workspace switch metrics.

Every switch is recorded with its latency and outcome. Metrics require
observability.metrics.enabled in the configuration.`,
	}

	cmd.AddCommand(newMetricsSummaryCmd())
	cmd.AddCommand(newMetricsHistoryCmd())

	return cmd
}

// metricsFilterFlags holds the shared filter flags for metrics queries.
type metricsFilterFlags struct {
	since     time.Duration
	workspace string
	limit     int
}

func (f *metricsFilterFlags) filter() (ports.MetricsFilter, error) {
	filter := ports.MetricsFilter{Limit: f.limit}
	if f.since > 0 {
		filter.Since = time.Now().Add(-f.since)
	}
	if f.workspace != "" {
		container := GetContainer()
		if container == nil {
			return filter, fmt.Errorf("application not initialized")
		}
		ws, err := container.Registry().WorkspaceByName(f.workspace)
		if err != nil {
			return filter, err
		}
		filter.WorkspaceID = ws.ID
	}
	return filter, nil
}

func (f *metricsFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.since, "since", 0, "only include records newer than this duration (e.g. 24h)")
	cmd.Flags().StringVarP(&f.workspace, "workspace", "w", "", "filter by workspace name")
}

// newMetricsSummaryCmd creates the 'metrics summary' command.
func newMetricsSummaryCmd() *cobra.Command {
	flags := &metricsFilterFlags{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize switch history",
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			store := container.MetricsStore()
			if store == nil {
				return fmt.Errorf("metrics are not enabled; set observability.metrics.enabled in the config")
			}

			filter, err := flags.filter()
			if err != nil {
				return err
			}
			agg, err := store.Aggregate(context.Background(), filter)
			if err != nil {
				return fmt.Errorf("failed to aggregate metrics: %w", err)
			}

			formatter := GetFormatter()
			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(agg)
			}

			formatter.Header("Switch Metrics")
			formatter.Item("Switches", strconv.FormatInt(agg.Count, 10))
			formatter.Item("Failures", strconv.FormatInt(agg.Failures, 10))
			formatter.Item("Avg latency", fmt.Sprintf("%.1fms", agg.AvgLatencyMS))
			formatter.Item("Max latency", fmt.Sprintf("%dms", agg.MaxLatencyMS))
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// newMetricsHistoryCmd creates the 'metrics history' command.
func newMetricsHistoryCmd() *cobra.Command {
	flags := &metricsFilterFlags{limit: 20}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent switches",
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			store := container.MetricsStore()
			if store == nil {
				return fmt.Errorf("metrics are not enabled; set observability.metrics.enabled in the config")
			}

			filter, err := flags.filter()
			if err != nil {
				return err
			}
			records, err := store.SwitchHistory(context.Background(), filter)
			if err != nil {
				return fmt.Errorf("failed to query switch history: %w", err)
			}

			formatter := GetFormatter()
			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(records)
			}

			if len(records) == 0 {
				formatter.Info("No switch records found.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				outcome := formatter.Colorize("ok", output.ColorGreen)
				if !rec.Success {
					outcome = formatter.Colorize("failed", output.ColorRed)
					if rec.Reason != "" {
						outcome += " (" + rec.Reason + ")"
					}
				}
				rows = append(rows, []string{
					rec.SwitchedAt.Local().Format(time.DateTime),
					workspaceDisplayName(rec.WorkspaceID),
					fmt.Sprintf("%dms", rec.Latency.Milliseconds()),
					strconv.Itoa(rec.WindowCount),
					outcome,
				})
			}

			return formatter.Table(output.TableData{
				Columns: []output.TableColumn{
					{Header: "WHEN"},
					{Header: "WORKSPACE"},
					{Header: "LATENCY", Align: output.AlignRight},
					{Header: "WINDOWS", Align: output.AlignRight},
					{Header: "OUTCOME"},
				},
				Rows: rows,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 20, "maximum records to show")

	return cmd
}

// workspaceDisplayName renders a workspace reference for listings.
func workspaceDisplayName(workspaceID string) string {
	container := GetContainer()
	if container == nil {
		return workspaceID
	}
	for _, ws := range container.Registry().ListWorkspaces() {
		if ws.ID == workspaceID {
			return ws.Name
		}
	}
	return workspaceID
}
