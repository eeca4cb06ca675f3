package main

import (
	"embed"
	"os"

	"whisper-xxl-gui/internal/bootstrap"
	"whisper-xxl-gui/internal/logging"
)

//go:embed frontend/index.html
var appAssets embed.FS

func main() {
	logger := logging.FromEnv()

	app, err := bootstrap.NewWithAssets(appAssets)
	if err != nil {
		logger.Error("bootstrap app", logging.Err(err))
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		logger.Error("run app", logging.Err(err))
		os.Exit(1)
	}
}
