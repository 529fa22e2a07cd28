package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewUserCmd создаёт группу команд для пользователей.
func NewUserCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and their roles",
	}

	cmd.AddCommand(
		listCmd(rt, "list", "List all users", workflow.ListingUsers,
			"id", "email", "first_name", "last_name", "role_ids"),
		newUserFindCmd(rt),
		newUserAddCmd(rt),
		newUserDeleteCmd(rt),
		newUserRoleCmd(rt, "add-role", "Assign a role to a user", true),
		newUserRoleCmd(rt, "remove-role", "Remove a role from a user", false),
	)

	return cmd
}

// userFlags регистрирует тройку флагов, идентифицирующих пользователя.
func userFlags(cmd *cobra.Command, key *workflow.UserKey) {
	cmd.Flags().StringVar(&key.FirstName, "first", "", "First name (required)")
	cmd.Flags().StringVar(&key.LastName, "last", "", "Last name (required)")
	cmd.Flags().StringVar(&key.Email, "email", "", "Email, compared case-insensitively (required)")
	cmd.MarkFlagRequired("first")
	cmd.MarkFlagRequired("last")
	cmd.MarkFlagRequired("email")
}

func newUserFindCmd(rt *Runtime) *cobra.Command {
	var key workflow.UserKey

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find a user by name and email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			user, found, err := svc.FindUser(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !found {
				announce(rt.Output(), workflow.OutcomeNotFound, "user "+key.String())
				return nil
			}
			return rt.Output().Print(nil, nil, user)
		},
	}
	userFlags(cmd, &key)

	return cmd
}

func newUserAddCmd(rt *Runtime) *cobra.Command {
	var key workflow.UserKey
	var roles []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user unless it exists and assign roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.AddUser(cmd.Context(), key, roles)
			if res == nil {
				return err
			}
			for _, change := range res.Roles {
				announce(rt.Output(), change.Outcome, "role "+change.Role)
			}
			return rt.mutation(cmd.Context(), "user.add", "user "+key.Email, res.Outcome, res, err)
		},
	}
	userFlags(cmd, &key)
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role name to assign (repeatable or comma-separated)")

	return cmd
}

func newUserDeleteCmd(rt *Runtime) *cobra.Command {
	var key workflow.UserKey

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.DeleteUser(cmd.Context(), key)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "user.delete", "user "+key.Email, res.Outcome, res, err)
		},
	}
	userFlags(cmd, &key)

	return cmd
}

func newUserRoleCmd(rt *Runtime, use, short string, add bool) *cobra.Command {
	var key workflow.UserKey
	var role string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			change := svc.UnassignRole
			if add {
				change = svc.AssignRole
			}

			res, err := change(cmd.Context(), key, role)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "user."+use, "user "+key.Email+" role "+role, res.Outcome, res, err)
		},
	}
	userFlags(cmd, &key)
	cmd.Flags().StringVar(&role, "role", "", "Role name (required)")
	cmd.MarkFlagRequired("role")

	return cmd
}
