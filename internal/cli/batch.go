package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/batch"
)

// NewBatchCmd создаёт команду пакетной обработки CSV.
func NewBatchCmd(rt *Runtime) *cobra.Command {
	var names []string
	var help strings.Builder
	for _, a := range batch.Actions() {
		names = append(names, string(a))
		fmt.Fprintf(&help, "  %-13s %s\n", a, strings.Join(a.Columns(), ", "))
	}

	return &cobra.Command{
		Use:   "batch ACTION FILE",
		Short: "Apply one workflow to every row of a CSV file",
		Long: "Apply one workflow to every row of a CSV file.\n\n" +
			"The first row is a header and is skipped. Columns by action:\n\n" + help.String() + "\n" +
			"Rows are processed in order. A failed row is reported and the rest continue;\n" +
			"the command exits non-zero if any row failed or was left unprocessed by an interrupt.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := batch.ParseAction(args[0])
			if err != nil {
				return usageError{err}
			}

			rows, err := batch.ReadFile(args[1])
			if err != nil {
				return err
			}

			svc, err := rt.Service()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := rt.Output()
			auditAction := "batch." + string(action)

			report, err := batch.Dispatch(ctx, svc, action, rows, func(r batch.RowResult) {
				outcome := outcomeOf(r.Result)
				rt.metrics.ObserveBatchRow(string(action), string(r.Status))
				rt.record(ctx, auditAction, fmt.Sprintf("%s line %d", args[1], r.Line), outcome, r.Err)

				if r.Err != nil {
					out.Error(fmt.Sprintf("line %d: %v", r.Line, r.Err))
					return
				}
				announce(out, outcome, fmt.Sprintf("line %d", r.Line))
			})
			if err != nil {
				return err
			}

			rt.logger.Info("batch finished", "action", action, "succeeded", report.Succeeded, "failed", report.Failed, "skipped", report.Skipped)
			if err := out.Print(nil, nil, report); err != nil {
				return err
			}
			return report.Err()
		},
	}
}
