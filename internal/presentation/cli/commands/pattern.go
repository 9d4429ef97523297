package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tilekit/internal/presentation/cli/output"
)

// NewPatternCmd creates the pattern command group.
func NewPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Inspect tiling patterns",
		Long: `Inspect tiling patterns.

A pattern names a tiling algorithm plus its spacing parameters. Workspaces
bind a pattern by id; the primary-stack default is always present.`,
	}

	cmd.AddCommand(newPatternListCmd())
	cmd.AddCommand(newPatternShowCmd())

	return cmd
}

// newPatternListCmd creates the 'pattern list' command.
func newPatternListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List tiling patterns",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			patterns := container.Registry().ListPatterns()
			formatter := GetFormatter()

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(patterns)
			}

			rows := make([][]string, 0, len(patterns))
			for _, p := range patterns {
				maxWindows := "unbounded"
				if p.MaxWindows > 0 {
					maxWindows = strconv.Itoa(p.MaxWindows)
				}
				rows = append(rows, []string{
					p.Name,
					string(p.Algorithm),
					fmt.Sprintf("%.2f", p.MainAreaRatio),
					fmt.Sprintf("%.0f", p.GapSize),
					maxWindows,
					string(p.OverflowPolicy),
				})
			}

			return formatter.Table(output.TableData{
				Columns: []output.TableColumn{
					{Header: "NAME"},
					{Header: "ALGORITHM"},
					{Header: "MAIN RATIO", Align: output.AlignRight},
					{Header: "GAP", Align: output.AlignRight},
					{Header: "MAX WINDOWS", Align: output.AlignRight},
					{Header: "OVERFLOW"},
				},
				Rows: rows,
			})
		},
	}

	return cmd
}

// newPatternShowCmd creates the 'pattern show' command.
func newPatternShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a pattern's parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			id, err := resolvePatternID(args[0])
			if err != nil {
				return err
			}
			p, err := container.Registry().GetPattern(id)
			if err != nil {
				return err
			}

			formatter := GetFormatter()
			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(p)
			}

			formatter.Header(p.Name)
			formatter.Item("ID", p.ID)
			formatter.Item("Algorithm", string(p.Algorithm))
			formatter.Item("Main area ratio", fmt.Sprintf("%.2f", p.MainAreaRatio))
			formatter.Item("Gap size", fmt.Sprintf("%.0f", p.GapSize))
			formatter.Item("Window margin", fmt.Sprintf("%.0f", p.WindowMargin))
			if p.MaxWindows > 0 {
				formatter.Item("Max windows", strconv.Itoa(p.MaxWindows))
				formatter.Item("Overflow policy", string(p.OverflowPolicy))
			} else {
				formatter.Item("Max windows", "unbounded")
			}
			return nil
		},
	}

	return cmd
}
