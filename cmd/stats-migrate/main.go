package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"ms-ticket-stats/internal/config"
	"ms-ticket-stats/internal/database/migrations"
	"ms-ticket-stats/internal/logger"
)

const usage = `usage: stats-migrate [--env-file PATH] up|down|version`

func main() {
	envFile := pflag.String("env-file", ".env", "path of the .env file to load if present")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	log := logger.NewWithWriter(os.Stdout)
	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Warn("CONFIG", fmt.Sprintf("Failed to load %s: %v", *envFile, err))
	}
	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(sqldb, migrations.DefaultOptions(), log)
	defer runner.Close()

	switch pflag.Arg(0) {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "version":
	default:
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		runner.Close()
		log.Fatal("MIGRATE", err.Error())
	}

	version, dirty, err := runner.Version()
	if err != nil {
		runner.Close()
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("Schema version %d (dirty: %t)", version, dirty))
}
