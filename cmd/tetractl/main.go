// tetractl — инструмент командной строки для management API Tetration:
// scopes, приложения, пользователи, роли, сенсоры и пакетная обработка CSV.
//
// Использование:
//
//	tetractl [--endpoint URL] [--creds-file FILE] [-o json|yaml|table] <command> <subcommand> [flags]
//
// Команды:
//
//	scope      Управление application scopes
//	app        Управление приложениями
//	user       Управление пользователями и их ролями
//	role       Управление ролями
//	sensor     Управление сенсорами
//	switch     Коммутаторы
//	flow       Метаданные flow search
//	inventory  Метаданные и фильтры inventory
//	batch      Пакетная обработка CSV
//	audit      Журнал аудита
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/tetractl/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(version)
	if err := app.Execute(ctx); err != nil {
		app.Report(err)
		stop()
		os.Exit(1)
	}
}
