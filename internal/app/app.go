package app

import (
	"context"
	"net/http"

	"github.com/seanodera/Datasmith/internal/pkg/pkgconfig"
	"github.com/seanodera/Datasmith/internal/pkg/pkglog"
	"github.com/seanodera/Datasmith/internal/pkg/pkgmetric"
	"github.com/seanodera/Datasmith/internal/pkg/pkgrouter"
	"github.com/seanodera/Datasmith/internal/pkg/pkgroutine"
	"github.com/seanodera/Datasmith/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	goroutine *pkgroutine.Manager
	metrics   *pkgmetric.Metrics

	// resources

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closers run in reverse registration order on Stop
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	pkglog.InitLogging(app.config.GetString("log.level"))
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
