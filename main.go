/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/tessera/engine"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Int("frames", 0, "frames to render in headless mode, zero runs until interrupted")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}
	if *headless {
		cfg.Application.Headless = true
	}
	if *frames > 0 {
		cfg.Application.Frames = *frames
	}

	// capture sigterm and other system calls to stop the loop
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	e, err := engine.New(testbed.NewTestGame(cfg).Game)
	if err != nil {
		core.LogFatal("failed to create the engine: %s", err)
	}
	if err := e.Initialize(ctx); err != nil {
		core.LogFatal("failed to initialize the engine: %s", err)
	}
	if err := e.Run(ctx); err != nil {
		core.LogFatal("engine stopped with an error: %s", err)
	}
}
