// meshview is an interactive viewer for decimating triangle meshes.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ttzck/gm-meshproc/internal/config"
	"github.com/ttzck/gm-meshproc/internal/engine/window"
	"github.com/ttzck/gm-meshproc/internal/logger"
)

const windowTitle = "meshview"

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	win, err := window.New(window.Config{
		Title:  windowTitle,
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		VSync:  cfg.Viewer.VSync,
	}, logger.Named("window"))
	if err != nil {
		logger.Error("window creation failed", zap.Error(err))
		os.Exit(1)
	}
	defer win.Close()

	v, err := newViewer(cfg, win)
	if err != nil {
		logger.Error("viewer init failed", zap.Error(err))
		os.Exit(1)
	}
	defer v.close()

	if args := config.Args(); len(args) > 0 {
		if err := v.open(args[0]); err != nil {
			logger.Error("failed to open mesh", zap.String("path", args[0]), zap.Error(err))
		}
	}

	v.run()
	logger.Info("viewer closed normally")
}
