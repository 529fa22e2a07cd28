package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// Сообщения о состояниях, которые не являются ошибкой.
var notices = map[workflow.Outcome]string{
	workflow.OutcomeNotFound:        "%s: not found",
	workflow.OutcomeExists:          "%s: already exists",
	workflow.OutcomeScopeNotFound:   "%s: scope not found",
	workflow.OutcomeParentNotFound:  "%s: parent scope not found",
	workflow.OutcomeUserNotFound:    "%s: user not found",
	workflow.OutcomeRoleNotFound:    "%s: role not found",
	workflow.OutcomeAlreadyAssigned: "%s: role already assigned",
	workflow.OutcomeNotAssigned:     "%s: role is not assigned",
	workflow.OutcomeAlreadyGranted:  "%s: capability already granted",
	workflow.OutcomeNoClusters:      "%s: no clusters found, run ADM for this application first",
	workflow.OutcomeAlreadyDeleted:  "%s: all sensors already deleted",
	workflow.OutcomeIPMismatch:      "%s: ip does not belong to the host, nothing deleted",
	workflow.OutcomeSkipped:         "%s: skipped",
}

var successes = map[workflow.Outcome]string{
	workflow.OutcomeCreated:  "%s: created",
	workflow.OutcomeDeleted:  "%s: deleted",
	workflow.OutcomeAssigned: "%s: role assigned",
	workflow.OutcomeRemoved:  "%s: role removed",
	workflow.OutcomeGranted:  "%s: capability granted",
}

// announce печатает в stderr сообщение об итоге.
func announce(out *Output, outcome workflow.Outcome, target string) {
	if msg, ok := notices[outcome]; ok {
		out.Info(fmt.Sprintf(msg, target))
		return
	}
	if msg, ok := successes[outcome]; ok {
		out.Success(fmt.Sprintf(msg, target))
	}
}

// mutation печатает итог мутирующей операции и пишет его в журнал аудита.
// Возвращает opErr, чтобы команда завершилась с ненулевым кодом.
func (rt *Runtime) mutation(ctx context.Context, action, target string, outcome workflow.Outcome, data any, opErr error) error {
	rt.record(ctx, action, target, outcome, opErr)

	out := rt.Output()
	if err := out.Print(nil, nil, data); err != nil {
		return err
	}
	announce(out, outcome, target)
	return opErr
}

// outcomeOf достаёт итог из результата сценария.
func outcomeOf(v any) workflow.Outcome {
	switch r := v.(type) {
	case *workflow.ScopeResult:
		if r != nil {
			return r.Outcome
		}
	case *workflow.ApplicationResult:
		if r != nil {
			return r.Outcome
		}
	case *workflow.UserResult:
		if r != nil {
			return r.Outcome
		}
	case *workflow.RoleResult:
		if r != nil {
			return r.Outcome
		}
	case *workflow.RoleChangeResult:
		if r != nil {
			return r.Outcome
		}
	case *workflow.SensorResult:
		if r != nil {
			return r.Outcome
		}
	}
	return workflow.OutcomeFailed
}

// listCmd — команда, выводящая коллекцию API как есть.
func listCmd(rt *Runtime, use, short string, listing workflow.Listing, columns ...string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			raw, err := svc.List(cmd.Context(), listing)
			if err != nil {
				return err
			}

			headers, rows := rawTable(raw, columns...)
			return rt.Output().Print(headers, rows, raw)
		},
	}
}
