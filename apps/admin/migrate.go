package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	appfs "github.com/trezcool/darasa/assets"
)

// mockable
var gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
	return goose.RunFS(command, db, appfs.FS, dir, args...)
}

// migrate runs the goose command args[0] with the remaining args on the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.MigrationsDir, arguments...)
}
