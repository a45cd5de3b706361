package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mudler/LocalPlanner/pkg/config"
	"github.com/mudler/LocalPlanner/services"
	"github.com/mudler/LocalPlanner/webui"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := services.New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer svc.Close()

	if err := svc.WithModel(ctx); err != nil {
		panic(err)
	}

	// Start the auto-executor
	if err := svc.StartScheduler(ctx); err != nil {
		panic(err)
	}

	// Start the web server
	if err := webui.Serve(ctx, svc); err != nil {
		log.Fatal(err)
	}
}
