package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/config"
)

// App — корневая команда tetractl вместе с окружением запуска.
type App struct {
	root *cobra.Command
	rt   *Runtime
	last *cobra.Command
}

// NewApp собирает дерево команд.
func NewApp(version string) *App {
	rt := &Runtime{version: version}

	root := &cobra.Command{
		Use:           "tetractl",
		Short:         "tetractl — automation CLI for the Tetration management API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configFile, "config", "", "Config file (default: tetractl.yaml in ., $HOME/.tetractl, /etc/tetractl)")
	pf.String("endpoint", "", "API endpoint, e.g. https://tetration.example.com")
	pf.String("api-key", "", "API key (conflicts with --creds-file)")
	pf.String("api-secret", "", "API secret (conflicts with --creds-file)")
	pf.String("creds-file", "", "JSON file with api_key and api_secret")
	pf.Bool("insecure", false, "Skip TLS certificate verification")
	pf.Duration("timeout", 30*time.Second, "Per-request timeout")
	pf.Float64("rate-limit", 0, "Maximum API requests per second (0 = unlimited)")
	pf.StringP("output", "o", config.OutputJSON, "Console output format: json, yaml or table")
	pf.String("save-to-file", "", "Write the result as JSON to this file instead of stdout")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.String("audit-db-url", "", "PostgreSQL DSN for the audit trail")
	pf.String("audit-amqp-url", "", "RabbitMQ URL for audit events")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		NewScopeCmd(rt),
		NewAppCmd(rt),
		NewUserCmd(rt),
		NewRoleCmd(rt),
		NewSensorCmd(rt),
		NewSwitchCmd(rt),
		NewFlowCmd(rt),
		NewInventoryCmd(rt),
		NewBatchCmd(rt),
		NewAuditCmd(rt),
	)

	trackRun(rt, root)

	return &App{root: root, rt: rt}
}

// trackRun отмечает в rt момент входа в RunE. Ошибка после setup, но до
// RunE (аргументы, обязательные флаги, группы флагов) — ошибка использования.
func trackRun(rt *Runtime, c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			rt.running = true
			return run(cmd, args)
		}
	}
	for _, sub := range c.Commands() {
		trackRun(rt, sub)
	}
}

// Root возвращает корневую cobra-команду.
func (a *App) Root() *cobra.Command {
	return a.root
}

// Execute выполняет команду и всегда освобождает ресурсы запуска.
func (a *App) Execute(ctx context.Context) error {
	cmd, err := a.root.ExecuteContextC(ctx)
	a.last = cmd

	if ferr := a.rt.finish(); ferr != nil {
		if err == nil {
			return ferr
		}
		if a.rt.logger != nil {
			a.rt.logger.Warn("cleanup failed", "error", ferr)
		}
	}
	return err
}

// Report печатает итоговую ошибку красным в stderr. Для ошибок
// в аргументах дополнительно печатается usage выполненной команды.
func (a *App) Report(err error) {
	a.rt.Output().Error(err.Error())
	usage := IsUsage(err) || (a.rt.cfg != nil && !a.rt.running)
	if usage && a.last != nil {
		a.last.PrintErr(a.last.UsageString())
	}
}
