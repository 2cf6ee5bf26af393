package app

import (
	"log/slog"
	"os"

	"github.com/seanodera/Datasmith/internal/datasmith"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.datasmith.enabled") {
		closer, err := datasmith.New(datasmith.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			Metrics:   a.metrics,
		})
		if err != nil {
			slog.Error("failed to init module datasmith", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.addCloser("Datasmith", closer)
		}
	}
}
