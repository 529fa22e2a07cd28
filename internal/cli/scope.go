package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewScopeCmd создаёт группу команд для application scopes.
func NewScopeCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Manage application scopes",
	}

	cmd.AddCommand(
		listCmd(rt, "list", "List all scopes", workflow.ListingScopes,
			"id", "short_name", "name", "parent_app_scope_id", "dirty"),
		newScopeShowCmd(rt),
		newScopeCreateCmd(rt),
	)

	return cmd
}

func newScopeShowCmd(rt *Runtime) *cobra.Command {
	var ref workflow.ScopeRef

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a scope by id or short name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			raw, found, err := svc.GetScope(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if !found {
				announce(rt.Output(), workflow.OutcomeNotFound, "scope "+ref.String())
				return nil
			}
			return rt.Output().Print(nil, nil, raw)
		},
	}

	cmd.Flags().StringVar(&ref.ID, "id", "", "Scope ID")
	cmd.Flags().StringVar(&ref.ShortName, "name", "", "Scope short name")
	cmd.MarkFlagsOneRequired("id", "name")
	cmd.MarkFlagsMutuallyExclusive("id", "name")

	return cmd
}

func newScopeCreateCmd(rt *Runtime) *cobra.Command {
	var spec workflow.ScopeSpec

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a scope under a parent and commit the parent if dirty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := spec.Validate(); err != nil {
				return usageError{err}
			}

			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.CreateScope(cmd.Context(), spec)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "scope.create", "scope "+spec.ShortName, res.Outcome, res, err)
		},
	}

	cmd.Flags().StringVar(&spec.ShortName, "name", "", "New scope short name (required)")
	cmd.Flags().StringVar(&spec.ParentShortName, "parent", "", "Parent scope short name (required)")
	cmd.Flags().StringVar(&spec.QueryField, "field", "", "Query field, e.g. host_subnet")
	cmd.Flags().StringVar(&spec.QueryType, "type", "eq", "Query type, e.g. eq, subnet, contains")
	cmd.Flags().StringVar(&spec.QueryValue, "value", "", "Query value")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("parent")

	return cmd
}
