// Command app runs the desktop UI serving the frontend from ./frontend on
// disk, for development without rebuilding the embedded assets.
package main

import (
	"os"

	"whisper-xxl-gui/internal/bootstrap"
	"whisper-xxl-gui/internal/logging"
)

func main() {
	logger := logging.FromEnv()

	app, err := bootstrap.New()
	if err != nil {
		logger.Error("bootstrap app", logging.Err(err))
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		logger.Error("run app", logging.Err(err))
		os.Exit(1)
	}
}
