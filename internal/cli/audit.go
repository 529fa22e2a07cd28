package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/audit"
	"github.com/shaiso/tetractl/internal/mq"
	"github.com/shaiso/tetractl/internal/repo"
	"github.com/shaiso/tetractl/internal/workflow"
)

// NewAuditCmd создаёт группу команд для журнала аудита.
func NewAuditCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail of mutating operations",
	}

	cmd.AddCommand(
		newAuditListCmd(rt),
		newAuditShowCmd(rt),
		newAuditTailCmd(rt),
	)

	return cmd
}

func eventRows(events []audit.Event) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			e.ID.String(),
			e.Time.Format(time.RFC3339),
			e.Action,
			e.Target,
			e.Outcome,
			e.Error,
		}
	}
	return rows
}

var eventHeaders = []string{"ID", "TIME", "ACTION", "TARGET", "OUTCOME", "ERROR"}

func newAuditListCmd(rt *Runtime) *cobra.Command {
	var filter repo.AuditFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.AuditStore(cmd.Context())
			if err != nil {
				return err
			}

			events, err := store.ListRecent(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if events == nil {
				events = []audit.Event{}
			}
			return rt.Output().Print(eventHeaders, eventRows(events), events)
		},
	}

	cmd.Flags().StringVar(&filter.Action, "action", "", "Only events of this action, e.g. user.add")
	cmd.Flags().StringVar(&filter.RunID, "run-id", "", "Only events of this invocation")
	cmd.Flags().IntVar(&filter.Limit, "limit", repo.DefaultListLimit, "Maximum number of events")

	return cmd
}

func newAuditShowCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one audit event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return usageError{fmt.Errorf("invalid event id %q: %w", args[0], err)}
			}

			store, err := rt.AuditStore(cmd.Context())
			if err != nil {
				return err
			}

			event, err := store.GetByID(cmd.Context(), id)
			if errors.Is(err, repo.ErrNotFound) {
				announce(rt.Output(), workflow.OutcomeNotFound, "audit event "+args[0])
				return nil
			}
			if err != nil {
				return err
			}
			return rt.Output().Print(eventHeaders, eventRows([]audit.Event{*event}), event)
		},
	}
}

func newAuditTailCmd(rt *Runtime) *cobra.Command {
	var binding string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow audit events published to the broker until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.SaveToFile != "" {
				return usageError{ErrTailSaveToFile}
			}

			conn, err := rt.Broker()
			if err != nil {
				return err
			}

			out := rt.Output()
			sub := mq.NewSubscriber(conn.Channel(), rt.logger)
			return sub.Tail(cmd.Context(), binding, func(_ context.Context, e audit.Event) error {
				return out.Print(eventHeaders, eventRows([]audit.Event{e}), e)
			})
		},
	}

	cmd.Flags().StringVar(&binding, "binding", mq.RoutingAll, "Routing key pattern, e.g. user.* or batch.#")

	return cmd
}
