package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/seanodera/Datasmith/internal/datasmith/analyzer"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
	"github.com/seanodera/Datasmith/internal/pkg/pkguid"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

const publishTimeout = time.Second

type Store interface {
	Dispatch(ctx context.Context, a session.Action) (session.State, error)
	Snapshot(ctx context.Context) (session.State, error)
}

type Parser interface {
	Parse(ctx context.Context, file *entity.UploadedFile, opts entity.FileOptions) (*entity.ParsedTable, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, file *entity.UploadedFile, onProgress analyzer.ProgressFunc) (*entity.AnalysisResponse, error)
	Health(ctx context.Context) (*analyzer.Health, error)
}

type Preferences interface {
	Theme() entity.Theme
	SaveTheme(theme entity.Theme) error
}

type EventPublisher interface {
	Publish(ctx context.Context, n entity.Notification) error
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type Recorder interface {
	ObserveUpload(outcome string)
	ObserveAnalysis(outcome string, d time.Duration)
	ObserveParse(outcome string, d time.Duration)
}

type Dependency struct {
	Store       Store
	Parser      Parser
	Analyzer    Analyzer
	Preferences Preferences
	Events      EventPublisher
	Runner      Runner
	Clock       Clock
	Metrics     Recorder
	ID          pkguid.StringID
	Generation  pkguid.NumberID
	MaxBytes    int64
	RootCtx     context.Context
}

type Usecase struct {
	store    Store
	parser   Parser
	analyzer Analyzer
	prefs    Preferences
	events   EventPublisher
	runner   Runner
	clock    Clock
	metrics  Recorder
	id       pkguid.StringID
	gen      pkguid.NumberID
	maxBytes int64
	rootCtx  context.Context

	parses singleflight.Group

	// mu serializes operations that change the generation, so generations
	// reach the store in the order they were issued.
	mu        sync.Mutex
	runCtx    context.Context
	cancelRun context.CancelFunc
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	metrics := dep.Metrics
	if metrics == nil {
		metrics = noopRecorder{}
	}

	maxBytes := dep.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Usecase{
		store:    dep.Store,
		parser:   dep.Parser,
		analyzer: dep.Analyzer,
		prefs:    dep.Preferences,
		events:   dep.Events,
		runner:   dep.Runner,
		clock:    clock,
		metrics:  metrics,
		id:       dep.ID,
		gen:      dep.Generation,
		maxBytes: maxBytes,
		rootCtx:  root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type noopRecorder struct{}

func (noopRecorder) ObserveUpload(string)                  {}
func (noopRecorder) ObserveAnalysis(string, time.Duration) {}
func (noopRecorder) ObserveParse(string, time.Duration)    {}

func (u *Usecase) ready() error {
	if u.store == nil || u.parser == nil || u.analyzer == nil || u.runner == nil || u.gen == nil {
		return pkgerror.NewServer(errors.New("missing dependency"))
	}
	return nil
}

// State returns the current session snapshot.
func (u *Usecase) State(ctx context.Context) (session.State, error) {
	st, err := u.store.Snapshot(ctx)
	if err != nil {
		return session.State{}, normalizeErr(err)
	}
	return st, nil
}

// Cancel drops the current file and every result derived from it. Work still
// running for it is canceled; whatever it reports later is ignored.
func (u *Usecase) Cancel(ctx context.Context) (session.State, error) {
	if err := u.ready(); err != nil {
		return session.State{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.stopRun()
	st, err := u.store.Dispatch(ctx, session.Reset{Generation: u.gen.Generate()})
	if err != nil {
		return session.State{}, normalizeErr(err)
	}

	u.notify(ctx, entity.NotificationInfo, "Upload cancelled.")

	return st, nil
}

// SetOptions changes parse options and re-parses the current file for them.
func (u *Usecase) SetOptions(ctx context.Context, opts entity.FileOptions) (session.State, error) {
	if err := u.ready(); err != nil {
		return session.State{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	st, err := u.store.Dispatch(ctx, session.SetOptions{Options: opts})
	if err != nil {
		return session.State{}, normalizeErr(err)
	}

	if st.NeedsParse() && u.runCtx != nil {
		u.startParse(u.runCtx, st.Generation, st.File, st.Options)
	}

	return st, nil
}

// SetTheme switches the theme and persists it. A failed write is logged; the
// session still switches.
func (u *Usecase) SetTheme(ctx context.Context, theme entity.Theme) (session.State, error) {
	if !theme.Valid() {
		return session.State{}, pkgerror.NewInvalidInput(errors.New("theme must be light or dark"))
	}

	if u.prefs != nil {
		if err := u.prefs.SaveTheme(theme); err != nil {
			slog.WarnContext(ctx, "failed to persist theme", "theme", string(theme), "error", err)
		}
	}

	st, err := u.store.Dispatch(ctx, session.SetTheme{Theme: theme})
	if err != nil {
		return session.State{}, normalizeErr(err)
	}

	return st, nil
}

// AnalyzerHealth reports whether the analysis service answers.
func (u *Usecase) AnalyzerHealth(ctx context.Context) (*analyzer.Health, error) {
	if u.analyzer == nil {
		return nil, pkgerror.NewServer(errors.New("missing dependency"))
	}

	h, err := u.analyzer.Health(ctx)
	if err != nil {
		return nil, pkgerror.NewUpstream(err, err.Error())
	}

	return h, nil
}

// newRun cancels work of the previous generation and returns the context for
// the next one. Callers hold u.mu.
func (u *Usecase) newRun() context.Context {
	u.stopRun()
	u.runCtx, u.cancelRun = context.WithCancel(u.rootCtx)
	return u.runCtx
}

func (u *Usecase) stopRun() {
	if u.cancelRun != nil {
		u.cancelRun()
	}
	u.runCtx, u.cancelRun = nil, nil
}

func (u *Usecase) notify(ctx context.Context, level entity.NotificationLevel, msg string) {
	if u.events == nil {
		return
	}

	n := entity.Notification{Level: level, Message: msg, At: u.clock.Now()}
	if u.id != nil {
		n.ID = u.id.Generate()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := u.events.Publish(pubCtx, n); err != nil {
		slog.WarnContext(ctx, "failed to publish notification", "notification_id", n.ID, "error", err)
	}
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
