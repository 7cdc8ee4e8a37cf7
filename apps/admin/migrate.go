package main

import (
	"github.com/pressly/goose/v3"

	"github.com/azizzt/controlescolar/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.PrepareGoose(cli.db); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, database.MigrationsDir(cli.db), arguments...)
}
