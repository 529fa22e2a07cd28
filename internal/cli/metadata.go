package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewSwitchCmd создаёт группу команд для коммутаторов.
func NewSwitchCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Inspect switches",
	}
	cmd.AddCommand(listCmd(rt, "list", "List all switches", workflow.ListingSwitches))
	return cmd
}

// NewFlowCmd создаёт группу команд для метаданных flow search.
func NewFlowCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Inspect flow search metadata",
	}
	cmd.AddCommand(
		listCmd(rt, "dimensions", "List flow search dimensions", workflow.ListingFlowDimensions),
		listCmd(rt, "metrics", "List flow search metrics", workflow.ListingFlowMetrics),
	)
	return cmd
}

// NewInventoryCmd создаёт группу команд для метаданных inventory.
func NewInventoryCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect inventory metadata and filters",
	}
	cmd.AddCommand(
		listCmd(rt, "dimensions", "List inventory search dimensions", workflow.ListingInventoryDimensions),
		newInventoryFiltersCmd(rt),
	)
	return cmd
}

func newInventoryFiltersCmd(rt *Runtime) *cobra.Command {
	var ref workflow.ScopeRef

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List inventory filters, optionally only those of one scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			scopeID := ref.ID
			if ref.ShortName != "" {
				id, found, err := svc.FindScopeID(cmd.Context(), ref)
				if err != nil {
					return err
				}
				if !found {
					announce(rt.Output(), workflow.OutcomeScopeNotFound, "inventory filters")
					return nil
				}
				scopeID = id
			}

			raw, err := svc.InventoryFilters(cmd.Context(), scopeID)
			if err != nil {
				return err
			}

			headers, rows := rawTable(raw, "id", "name", "app_scope_id", "public")
			return rt.Output().Print(headers, rows, raw)
		},
	}

	cmd.Flags().StringVar(&ref.ID, "scope-id", "", "Only filters of this scope ID")
	cmd.Flags().StringVar(&ref.ShortName, "scope", "", "Only filters of this scope short name")
	cmd.MarkFlagsMutuallyExclusive("scope-id", "scope")

	return cmd
}
