package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB & repos; migrations are left to the migrate command
	repos, err := database.NewRepositories(conf, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// start CLI
	cli := commandLine{usrSvc: user.NewService(repos.Users)}
	if repos.DB != nil {
		cli.db = repos.DB.DB
	}
	err = cli.run(os.Args)
	_ = repos.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
