// Package commands implements CLI commands for workspace management.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
	"github.com/jbctechsolutions/tilekit/internal/presentation/cli/output"
)

// NewWorkspaceCmd creates the workspace command group.
func NewWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
		Long: `Manage workspaces.

A workspace names an arrangement of windows: it binds a tiling pattern,
optional per-monitor overrides, and the shortcut that activates it.`,
		Aliases: []string{"ws"},
	}

	cmd.AddCommand(newWorkspaceCreateCmd())
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceSwitchCmd())
	cmd.AddCommand(newWorkspaceDeleteCmd())

	return cmd
}

// newWorkspaceCreateCmd creates the 'workspace create' command.
func newWorkspaceCreateCmd() *cobra.Command {
	var (
		description string
		shortcut    string
		patternName string
		noArrange   bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new workspace",
		Long: `Create a new workspace.

The workspace binds the default primary-stack pattern unless --pattern
names another one. Shortcuts use the opt modifier; cmd is reserved for
the system.

Examples:
  # Create a workspace with the default pattern
  tilekit workspace create Coding

  # Bind a pattern and an activation shortcut
  tilekit workspace create Comms --pattern grid --shortcut opt+2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			reg := container.Registry()
			ctx := context.Background()

			req := workspace.CreateRequest{
				Name:        name,
				Description: description,
				Shortcut:    shortcut,
			}
			if noArrange {
				f := false
				req.AutoArrange = &f
			}
			if patternName != "" {
				id, err := resolvePatternID(patternName)
				if err != nil {
					return err
				}
				req.PatternID = id
			}

			ws, err := reg.CreateWorkspace(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create workspace: %w", err)
			}

			formatter := GetFormatter()
			formatter.Success("Workspace created: %s", ws.Name)
			formatter.Item("ID", ws.ID)
			formatter.Item("Pattern", patternDisplayName(ws.PatternID))
			if ws.Shortcut != "" {
				formatter.Item("Shortcut", ws.Shortcut)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "workspace description")
	cmd.Flags().StringVarP(&shortcut, "shortcut", "s", "", "activation shortcut (e.g. opt+1)")
	cmd.Flags().StringVarP(&patternName, "pattern", "p", "", "tiling pattern name or id")
	cmd.Flags().BoolVar(&noArrange, "no-auto-arrange", false, "disable automatic re-tiling on window changes")

	return cmd
}

// newWorkspaceListCmd creates the 'workspace list' command.
func newWorkspaceListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List workspaces",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}

			workspaces := container.Registry().ListWorkspaces()
			formatter := GetFormatter()

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(workspaces)
			}

			if len(workspaces) == 0 {
				formatter.Info("No workspaces configured. Create one with 'tilekit workspace create NAME'.")
				return nil
			}

			activeID := container.Manager().ActiveWorkspaceID()
			rows := make([][]string, 0, len(workspaces))
			for i, ws := range workspaces {
				state := string(ws.State)
				if ws.ID == activeID {
					state = formatter.Colorize(state, output.ColorGreen)
				}
				lastUsed := "never"
				if !ws.LastUsedAt.IsZero() {
					lastUsed = ws.LastUsedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					ws.Name,
					patternDisplayName(ws.PatternID),
					ws.Shortcut,
					state,
					lastUsed,
				})
			}

			return formatter.Table(output.TableData{
				Columns: []output.TableColumn{
					{Header: "#", Align: output.AlignRight},
					{Header: "NAME"},
					{Header: "PATTERN"},
					{Header: "SHORTCUT"},
					{Header: "STATE"},
					{Header: "LAST USED"},
				},
				Rows: rows,
			})
		},
	}

	return cmd
}

// newWorkspaceSwitchCmd creates the 'workspace switch' command.
func newWorkspaceSwitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch NAME|POSITION",
		Short: "Activate a workspace",
		Long: `Activate a workspace by name or 1-based position.

The switch computes the workspace's placement plan and applies it through
the platform driver; on any failure the previous workspace stays active.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			mgr := container.Manager()
			ctx := context.Background()

			started := time.Now()
			var err error
			if pos, convErr := strconv.Atoi(args[0]); convErr == nil {
				err = mgr.SwitchByPosition(ctx, pos)
			} else {
				err = mgr.SwitchByName(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("switch failed: %w", err)
			}

			formatter := GetFormatter()
			formatter.Success("Switched to %s in %dms", args[0], time.Since(started).Milliseconds())
			return nil
		},
	}

	return cmd
}

// newWorkspaceDeleteCmd creates the 'workspace delete' command.
func newWorkspaceDeleteCmd() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:     "delete NAME",
		Short:   "Delete a workspace",
		Aliases: []string{"rm"},
		Long: `Delete a workspace.

Deletion fails when rules, monitor configurations, or keyboard mappings
still reference the workspace; pass --cascade to remove them too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := GetContainer()
			if container == nil {
				return fmt.Errorf("application not initialized")
			}
			reg := container.Registry()
			ctx := context.Background()

			ws, err := reg.WorkspaceByName(args[0])
			if err != nil {
				return err
			}
			if err := reg.DeleteWorkspace(ctx, ws.ID, cascade); err != nil {
				return fmt.Errorf("failed to delete workspace: %w", err)
			}

			GetFormatter().Success("Workspace deleted: %s", ws.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete dependent rules, overrides, and mappings")

	return cmd
}

// resolvePatternID resolves a pattern name or id to its id.
func resolvePatternID(nameOrID string) (string, error) {
	container := GetContainer()
	if container == nil {
		return "", fmt.Errorf("application not initialized")
	}
	for _, p := range container.Registry().ListPatterns() {
		if p.ID == nameOrID || p.Name == nameOrID || string(p.Algorithm) == nameOrID {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("unknown pattern: %s", nameOrID)
}

// patternDisplayName renders a pattern reference for listings.
func patternDisplayName(patternID string) string {
	container := GetContainer()
	if container == nil {
		return patternID
	}
	p, err := container.Registry().GetPattern(patternID)
	if err != nil {
		return patternID
	}
	return p.Name
}
