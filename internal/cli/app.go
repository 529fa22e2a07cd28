package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewAppCmd создаёт группу команд для приложений.
func NewAppCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "app",
		Aliases: []string{"application"},
		Short:   "Manage applications",
	}

	cmd.AddCommand(
		listCmd(rt, "list", "List all applications", workflow.ListingApplications,
			"id", "name", "app_scope_id", "primary"),
		newAppShowCmd(rt),
		newAppCreateCmd(rt),
		newAppClustersCmd(rt),
		newAppDeleteCmd(rt),
	)

	return cmd
}

func newAppShowCmd(rt *Runtime) *cobra.Command {
	var lookup workflow.ApplicationLookup

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show application details by id or by name within a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lookup.Validate(); err != nil {
				return usageError{err}
			}

			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.GetApplication(cmd.Context(), lookup)
			if err != nil {
				return err
			}
			if res.Outcome != workflow.OutcomeFound {
				announce(rt.Output(), res.Outcome, appTarget(lookup.ID, lookup.Name))
				return nil
			}
			return rt.Output().Print(nil, nil, res.Details)
		},
	}

	cmd.Flags().StringVar(&lookup.ID, "id", "", "Application ID")
	cmd.Flags().StringVar(&lookup.Name, "name", "", "Application name")
	cmd.Flags().StringVar(&lookup.Scope.ID, "scope-id", "", "Scope ID")
	cmd.Flags().StringVar(&lookup.Scope.ShortName, "scope", "", "Scope short name")
	cmd.MarkFlagsOneRequired("id", "name")
	cmd.MarkFlagsMutuallyExclusive("id", "name")
	cmd.MarkFlagsMutuallyExclusive("scope-id", "scope")

	return cmd
}

func newAppCreateCmd(rt *Runtime) *cobra.Command {
	var in workflow.CreateApplicationInput
	var primary string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application in a scope unless it already exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := strconv.ParseBool(primary)
			if err != nil {
				return usageError{fmt.Errorf("invalid value for --primary: %q", primary)}
			}
			in.Primary = b

			if err := in.Scope.Validate(); err != nil {
				return usageError{err}
			}

			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.CreateApplication(cmd.Context(), in)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "app.create", "application "+in.Name, res.Outcome, res, err)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Application name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Application description")
	cmd.Flags().StringVar(&in.Scope.ID, "scope-id", "", "Scope ID")
	cmd.Flags().StringVar(&in.Scope.ShortName, "scope", "", "Scope short name")
	cmd.Flags().StringVar(&primary, "primary", "false", "Mark as primary application (true/false)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagsOneRequired("scope-id", "scope")
	cmd.MarkFlagsMutuallyExclusive("scope-id", "scope")

	return cmd
}

func newAppClustersCmd(rt *Runtime) *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Show clusters discovered for an application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.GetApplicationClusters(cmd.Context(), appID)
			if err != nil {
				return err
			}
			if res.Outcome != workflow.OutcomeFound {
				announce(rt.Output(), res.Outcome, appTarget(appID, ""))
				return nil
			}
			return rt.Output().Print(nil, nil, map[string]json.RawMessage{"Clusters": res.Clusters})
		},
	}

	cmd.Flags().StringVar(&appID, "id", "", "Application ID (required)")
	cmd.MarkFlagRequired("id")

	return cmd
}

func newAppDeleteCmd(rt *Runtime) *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.DeleteApplication(cmd.Context(), appID)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "app.delete", appTarget(appID, ""), res.Outcome, res, err)
		},
	}

	cmd.Flags().StringVar(&appID, "id", "", "Application ID (required)")
	cmd.MarkFlagRequired("id")

	return cmd
}

func appTarget(id, name string) string {
	if id != "" {
		return "application " + id
	}
	return "application " + name
}
