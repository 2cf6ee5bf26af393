package datasmith

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/analyzer"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/event"
	"github.com/seanodera/Datasmith/internal/datasmith/inbound"
	"github.com/seanodera/Datasmith/internal/datasmith/prefs"
	"github.com/seanodera/Datasmith/internal/datasmith/preview"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/datasmith/usecase"
	"github.com/seanodera/Datasmith/internal/pkg/pkgconfig"
	"github.com/seanodera/Datasmith/internal/pkg/pkgmetric"
	"github.com/seanodera/Datasmith/internal/pkg/pkgrouter"
	"github.com/seanodera/Datasmith/internal/pkg/pkgroutine"
	"github.com/seanodera/Datasmith/internal/pkg/pkguid"
	"github.com/seanodera/Datasmith/internal/pkg/pkgvalidator"
)

const stateBuffer = 16

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	Metrics   *pkgmetric.Metrics
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}
	if dep.Context == nil {
		dep.Context = context.Background()
	}

	preferences, err := newPreferences(dep.Config)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(session.Initial(preferences.Theme()))
	store.Start()

	states, unsubscribe, err := store.Subscribe(dep.Context, stateBuffer)
	if err != nil {
		_ = store.Stop(context.Background())
		return nil, err
	}

	client := analyzer.New(analyzer.Config{
		BaseURL:           dep.Config.GetString("analyzer.base_url"),
		Timeout:           dep.Config.GetDuration("analyzer.timeout"),
		ProgressPerSecond: dep.Config.GetFloat("progress.events_per_second"),
	})

	hub := inbound.NewHub(dep.ID)
	hub.Start()

	bus := event.NewBus(512)
	dispatcher := event.NewDispatcher(bus, event.DispatcherConfig{
		Workers:     1,
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
	}, event.LogHandler{}, hub)
	dispatcher.Start()

	go hub.Watch(states)

	var generation pkguid.NumberID
	if sf, err := pkguid.NewSnowflake(); err == nil {
		generation = sf
	} else {
		slog.Warn("snowflake unavailable, using counter generations", "error", err)
		generation = pkguid.NewCounter(time.Now().UnixNano())
	}

	var metrics usecase.Recorder
	if dep.Metrics != nil {
		metrics = dep.Metrics
	}

	uc := usecase.New(usecase.Dependency{
		Store:       store,
		Parser:      preview.NewParser(),
		Analyzer:    client,
		Preferences: preferences,
		Events:      bus,
		Runner:      dep.Goroutine,
		Metrics:     metrics,
		ID:          dep.ID,
		Generation:  generation,
		MaxBytes:    dep.Config.GetInt("upload.max_bytes"),
		RootCtx:     dep.Context,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, pkgvalidator.New(), hub)

	return func(ctx context.Context) error {
		unsubscribe()
		return errors.Join(
			dispatcher.Stop(ctx),
			hub.Stop(ctx),
			store.Stop(ctx),
		)
	}, nil
}

func newPreferences(cfg pkgconfig.Config) (*prefs.FileStore, error) {
	path := cfg.GetString("preferences.path")
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, err
		}
	}

	system := entity.Theme(cfg.GetString("theme.system"))
	return prefs.NewFileStore(path, system), nil
}
