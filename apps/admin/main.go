package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/lyceum/core"
	logsvc "github.com/trezcool/lyceum/services/logger"
	"github.com/trezcool/lyceum/storage/database"
	sqlxrepos "github.com/trezcool/lyceum/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Flush()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
