package webui

import (
	"context"

	"github.com/mudler/LocalPlanner/services"
	"github.com/mudler/xlog"
)

// Serve exposes the assembled services over HTTP until ctx is done.
func Serve(ctx context.Context, svc *services.Services) error {
	app := NewApp(
		WithPool(svc.Pool),
		WithPlanner(svc.Planner),
		WithResponder(svc.Responder),
		WithScheduler(svc.Scheduler),
		WithProfile(svc.Profile),
		WithLocation(svc.Location),
		WithApiKeys(svc.Config.APIKeys...),
	)

	go func() {
		<-ctx.Done()
		xlog.Info("Shutting down web server")
		if err := app.Close(); err != nil {
			xlog.Error("Error shutting down web server", "error", err)
		}
	}()

	xlog.Info("Listening", "address", svc.Config.Address)
	return app.Listen(svc.Config.Address)
}
