package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/workflow"
)

// NewSensorCmd создаёт группу команд для сенсоров.
func NewSensorCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensor",
		Short: "Manage software sensors",
	}

	cmd.AddCommand(
		listCmd(rt, "list", "List all sensors", workflow.ListingSensors,
			"uuid", "host_name", "platform", "deleted_at"),
		newSensorShowCmd(rt),
		newSensorDeleteCmd(rt),
	)

	return cmd
}

func newSensorShowCmd(rt *Runtime) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show all sensor records of a host, including deleted ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			sensors, err := svc.FindSensors(cmd.Context(), host)
			if err != nil {
				return err
			}
			if len(sensors) == 0 {
				announce(rt.Output(), workflow.OutcomeNotFound, "host "+host)
				return nil
			}

			rows := make([][]string, len(sensors))
			for i, s := range sensors {
				state := "active"
				if s.IsDeleted() {
					state = "deleted"
				}
				rows[i] = []string{s.UUID, s.HostName, state}
			}
			return rt.Output().Print([]string{"UUID", "HOST", "STATE"}, rows, sensors)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host name (required)")
	cmd.MarkFlagRequired("host")

	return cmd
}

func newSensorDeleteCmd(rt *Runtime) *cobra.Command {
	var host, ip string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every sensor of a host after confirming its IP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.Service()
			if err != nil {
				return err
			}

			res, err := svc.DeleteSensor(cmd.Context(), host, ip)
			if res == nil {
				return err
			}
			return rt.mutation(cmd.Context(), "sensor.delete", "host "+host, res.Outcome, res, err)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host name (required)")
	cmd.Flags().StringVar(&ip, "ip", "", "IPv4 address the host must own (required)")
	cmd.MarkFlagRequired("host")
	cmd.MarkFlagRequired("ip")

	return cmd
}
