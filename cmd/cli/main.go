package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gfconnector/billing-console/internal/config"
	"github.com/gfconnector/billing-console/internal/mockdata"
	"github.com/gfconnector/billing-console/internal/repository"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/pg"
)

// main.go --env=.env --dir=./migrations [--seed[=N]]
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	pgConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}
	err = pg.Migrate(pgConf, getMigrationPath())
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
		return
	}

	n, ok := seedSize()
	if !ok {
		return
	}
	if err := seed(pgConf, n); err != nil {
		logger.Error("seed: failed to insert mock transactions", "error", err)
	}
}

func seed(conf pg.Config, n int) error {
	db, err := pg.CreateReadWrite(conf, conf, false)
	if err != nil {
		return err
	}
	defer db.Close()

	inserted, err := repository.NewTransactionRepository(db).Seed(context.Background(), mockdata.Generate(n, time.Now()))
	if err != nil {
		return err
	}
	logger.Info("seed: mock transactions inserted", "requested", n, "inserted", inserted)
	return nil
}

func seedSize() (int, bool) {
	for _, v := range os.Args[1:] {
		if v == "--seed" {
			return config.Get().MockSeedSize, true
		}
		if s, found := strings.CutPrefix(v, "--seed="); found {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				logger.Error("seed: invalid size", "value", s)
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

func getEnvPath() string {
	if path := config.ArgEnvPath(os.Args); path != "" {
		return path
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	for _, v := range os.Args {
		if dir, found := strings.CutPrefix(v, "--dir="); found {
			if _, err := os.Stat(dir); err != nil {
				logger.Error("failed to open the migrations dir", "dir", dir, "error", err)
				return ""
			}
			return dir
		}
	}
	return "./migrations"
}
