package main

import (
	"context"
	"flag"
	"os"

	"catalance/config"
	"catalance/internal/migrations"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	db, err := config.ConnectionDb(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("database handle unavailable")
	}
	defer sqlDB.Close()

	ctx := context.Background()
	switch command {
	case "up":
		err = migrations.Up(ctx, sqlDB)
	case "down":
		err = migrations.Down(ctx, sqlDB)
	case "status":
		err = migrations.Status(ctx, sqlDB)
	default:
		logger.WithField("command", command).Fatal("unknown command, expected up, down or status")
	}
	if err != nil {
		logger.WithError(err).WithField("command", command).Fatal("migration failed")
	}
	logger.WithField("command", command).Info("migration finished")
}
