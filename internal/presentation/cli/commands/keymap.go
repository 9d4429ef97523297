// Package commands implements CLI commands for keyboard mapping management.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/presentation/cli/output"
)

// NewKeymapCmd creates the keymap command group.
func NewKeymapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keymap",
		Short: "Manage keyboard mappings",
		Long: `Manage keyboard mappings.

Mappings bind key combinations to actions. The cmd modifier is reserved
for the system; legacy exports that use it are migrated to opt on import.`,
		Aliases: []string{"km"},
	}

	cmd.AddCommand(newKeymapListCmd())
	cmd.AddCommand(newKeymapImportCmd())
	cmd.AddCommand(newKeymapExportCmd())
	cmd.AddCommand(newKeymapRemoveCmd())

	return cmd
}

// newKeymapListCmd creates the 'keymap list' command.
func newKeymapListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List keyboard mappings",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			mappings := container.Registry().ListMappings()
			formatter := GetFormatter()

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(mappings)
			}

			if len(mappings) == 0 {
				formatter.Info("No keyboard mappings configured.")
				return nil
			}

			rows := make([][]string, 0, len(mappings))
			for _, m := range mappings {
				rows = append(rows, []string{
					m.Combination.String(),
					string(m.Action),
					m.Name,
					string(m.Scope),
				})
			}

			if err := formatter.Table(output.TableData{
				Columns: []output.TableColumn{
					{Header: "CHORD"},
					{Header: "ACTION"},
					{Header: "NAME"},
					{Header: "SCOPE"},
				},
				Rows: rows,
			}); err != nil {
				return err
			}

			stats := container.ShortcutTable().Snapshot()
			formatter.Println("")
			formatter.Item("Registered", fmt.Sprintf("%d", stats.Registered))
			formatter.Item("Conflicts prevented", fmt.Sprintf("%d", stats.ConflictsPrevented))
			formatter.Item("Migrations performed", fmt.Sprintf("%d", stats.MigrationsPerformed))
			return nil
		},
	}

	return cmd
}

// newKeymapImportCmd creates the 'keymap import' command.
func newKeymapImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import mappings from a legacy export",
		Long: `Import keyboard mappings from a YAML export.

Combinations that use the reserved cmd modifier are rewritten to opt.
Imports never auto-resolve conflicts: a chord already held by another
mapping is reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read export: %w", err)
			}
			var mappings []*keymap.Mapping
			if err := yaml.Unmarshal(data, &mappings); err != nil {
				return fmt.Errorf("failed to parse export: %w", err)
			}

			report, err := container.ShortcutTable().ImportLegacy(context.Background(), mappings)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			formatter := GetFormatter()
			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(report)
			}

			formatter.Success("Imported %d mappings", report.Imported)
			if len(report.Migrated) > 0 {
				formatter.Info("Migrated %d legacy cmd combinations to opt", len(report.Migrated))
			}
			for _, chord := range report.Conflicts {
				formatter.Warning("Skipped %s: chord already bound", chord)
			}
			return nil
		},
	}

	return cmd
}

// newKeymapExportCmd creates the 'keymap export' command.
func newKeymapExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export mappings as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			mappings := container.Registry().ListMappings()
			data, err := yaml.Marshal(mappings)
			if err != nil {
				return fmt.Errorf("failed to marshal mappings: %w", err)
			}

			if outFile == "" {
				return GetFormatter().Print("%s", string(data))
			}
			if err := os.WriteFile(outFile, data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			GetFormatter().Success("Exported %d mappings to %s", len(mappings), outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "file", "f", "", "write to file instead of stdout")

	return cmd
}

// newKeymapRemoveCmd creates the 'keymap remove' command.
func newKeymapRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove CHORD",
		Short:   "Remove the mapping bound to a chord",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			table := container.ShortcutTable()

			m, err := table.Resolve(args[0], false)
			if err != nil {
				return fmt.Errorf("no mapping bound to %s", args[0])
			}
			if err := table.Unregister(context.Background(), m.ID); err != nil {
				return fmt.Errorf("failed to remove mapping: %w", err)
			}

			GetFormatter().Success("Removed %s (%s)", m.Combination.String(), m.Name)
			return nil
		},
	}

	return cmd
}
