package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/tphakala/audiopipe/cmd"
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}

	logging.Init()

	if settings.Main.Log.Enabled {
		fileLogger, closeLogger, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
		if err != nil {
			logging.Warn("file logging disabled", "error", err)
		} else {
			slog.SetDefault(fileLogger)
			defer closeLogger() //nolint:errcheck
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		os.Exit(1)
	}
}
