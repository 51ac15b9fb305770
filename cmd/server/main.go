package main

import (
	"github.com/cicdguard/backend/internal/config"
	"github.com/cicdguard/backend/internal/server"
	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnvString("LOG_FORMAT", "text"),
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "err", err)
	}

	server.Init(cfg)
}
