package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewRoleCmd создаёт группу команд для ролей.
func NewRoleCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
	}

	cmd.AddCommand(
		listCmd(rt, "list", "List all roles", workflow.ListingRoles,
			"id", "name", "description"),
		newRoleIDsCmd(rt),
		newRoleAddCmd(rt),
	)

	return cmd
}

func newRoleIDsCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "List the IDs of all roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			ids, err := svc.ListRoleIDs(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(ids))
			for i, id := range ids {
				rows[i] = []string{id}
			}
			return rt.Output().Print([]string{"ID"}, rows, ids)
		},
	}
}

func newRoleAddCmd(rt *Runtime) *cobra.Command {
	var spec workflow.RoleSpec

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a role unless it exists and grant it a capability in a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.AddRole(cmd.Context(), spec)
			if res == nil {
				return err
			}
			if res.Capability != "" {
				announce(rt.Output(), res.Capability, "scope "+spec.ScopeShortName)
			}
			return rt.mutation(cmd.Context(), "role.add", "role "+spec.Name, res.Outcome, res, err)
		},
	}

	cmd.Flags().StringVar(&spec.Name, "name", "", "Role name (required)")
	cmd.Flags().StringVar(&spec.Description, "description", "", "Role description (defaults to the name)")
	cmd.Flags().StringVar(&spec.ScopeShortName, "scope", "", "Scope short name for the capability")
	cmd.Flags().StringVar(&spec.Ability, "ability", "", "Capability ability, e.g. SCOPE_READ")
	cmd.MarkFlagRequired("name")

	return cmd
}
