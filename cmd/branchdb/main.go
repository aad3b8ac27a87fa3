package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"branchdb/internal/app"
	"branchdb/pkg/config"
	"branchdb/pkg/logger"
	"branchdb/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}
	envCfg, envRes := config.ParseConfigEnvs()
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		log.Fatalf("failed to resolve config: %v", err)
	}

	logger.InitWithLevel(eff.Config.Logging.Level, eff.Config.Logging.Format)
	defer logger.Sync()

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, eff.DBPath, 0)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		log.Printf("shutdown error: %v", err)
		return
	}

	// Clean exits leave a request file under <DBPath>/state/abort, same as
	// crash aborts, with Cmd "abort" and a graceful reason.
	if path, err := shutdown.RequestExitFile(eff.DBPath, "graceful shutdown"); err != nil {
		log.Printf("failed to record exit request: %v", err)
	} else {
		log.Printf("exit request recorded: %s", path)
	}
}
