package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seanodera/Datasmith/internal/datasmith/analyzer"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

// Analyze sends the current file to the analysis service again. Only one
// analysis runs at a time.
func (u *Usecase) Analyze(ctx context.Context) (session.State, error) {
	if err := u.ready(); err != nil {
		return session.State{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	st, err := u.store.Snapshot(ctx)
	if err != nil {
		return session.State{}, normalizeErr(err)
	}
	if st.File == nil {
		return session.State{}, pkgerror.NewBusiness("No file selected.", pkgerror.CodeNotFound)
	}
	if st.Loading {
		return session.State{}, pkgerror.NewBusiness("Analysis already in progress.", pkgerror.CodeConflict)
	}

	runCtx := u.runCtx
	if runCtx == nil {
		runCtx = u.newRun()
	}

	u.notify(ctx, entity.NotificationInfo, "Sending file to backend...")

	return u.startAnalysis(ctx, runCtx, st.Generation, st.File)
}

// startAnalysis marks the session loading and uploads file in the
// background. Callers hold u.mu.
func (u *Usecase) startAnalysis(ctx, runCtx context.Context, gen int64, file *entity.UploadedFile) (session.State, error) {
	st, err := u.store.Dispatch(ctx, session.AnalyzePending{Generation: gen})
	if err != nil {
		return session.State{}, normalizeErr(err)
	}

	u.runner.Go(runCtx, func(ctx context.Context) error {
		return u.runAnalysis(ctx, gen, file)
	})

	return st, nil
}

func (u *Usecase) runAnalysis(ctx context.Context, gen int64, file *entity.UploadedFile) error {
	start := u.clock.Now()
	res, err := u.analyzer.Analyze(ctx, file, func(percent int) {
		u.dispatch(session.SetProgress{Generation: gen, Percent: percent})
	})
	elapsed := u.clock.Now().Sub(start)

	if ctx.Err() != nil {
		u.metrics.ObserveAnalysis("canceled", elapsed)
		slog.InfoContext(ctx, "analysis canceled", "file", file.Name, "generation", gen)
		return nil
	}

	if err != nil {
		outcome := string(analyzer.KindSetup)
		var aerr *analyzer.Error
		if errors.As(err, &aerr) {
			outcome = string(aerr.Kind)
		}
		u.metrics.ObserveAnalysis(outcome, elapsed)

		u.dispatch(session.AnalyzeRejected{Generation: gen, Err: err.Error()})
		u.notify(ctx, entity.NotificationError, fmt.Sprintf("%s file upload failed.", file.Name))
		return fmt.Errorf("analyze %s: %w", file.Name, err)
	}

	u.metrics.ObserveAnalysis("success", elapsed)
	u.dispatch(session.AnalyzeFulfilled{Generation: gen, Result: res})
	u.notify(ctx, entity.NotificationSuccess, fmt.Sprintf("%s file uploaded successfully.", file.Name))

	return nil
}

// startParse parses file for opts in the background. Requests for the same
// generation and options share one parse.
func (u *Usecase) startParse(runCtx context.Context, gen int64, file *entity.UploadedFile, opts entity.FileOptions) {
	key := fmt.Sprintf("%d:%t:%t", gen, opts.Header, opts.SkipEmptyLines)

	u.runner.Go(runCtx, func(ctx context.Context) error {
		_, err, shared := u.parses.Do(key, func() (any, error) {
			return nil, u.runParse(ctx, gen, file, opts)
		})
		if shared {
			slog.DebugContext(ctx, "joined running preview parse", "key", key)
		}
		return err
	})
}

func (u *Usecase) runParse(ctx context.Context, gen int64, file *entity.UploadedFile, opts entity.FileOptions) error {
	st, err := u.store.Snapshot(u.rootCtx)
	if err != nil {
		return err
	}
	if !st.Current(gen) || st.Options != opts || st.Table != nil {
		return nil
	}

	u.dispatch(session.ParsePending{Generation: gen, Options: opts})

	start := u.clock.Now()
	table, err := u.parser.Parse(ctx, file, opts)
	elapsed := u.clock.Now().Sub(start)

	if err != nil {
		if ctx.Err() != nil {
			u.metrics.ObserveParse("canceled", elapsed)
			return nil
		}

		u.metrics.ObserveParse("failure", elapsed)
		u.dispatch(session.ParseRejected{Generation: gen, Options: opts, Err: err.Error()})
		u.notify(ctx, entity.NotificationError, fmt.Sprintf("Failed to parse %s: %v", file.Name, err))
		return fmt.Errorf("parse %s: %w", file.Name, err)
	}

	u.metrics.ObserveParse("success", elapsed)
	u.dispatch(session.ParseFulfilled{Generation: gen, Options: opts, Table: table})

	return nil
}

// dispatch applies an action produced by background work. The store drops it
// when its generation is stale.
func (u *Usecase) dispatch(a session.Action) {
	if _, err := u.store.Dispatch(u.rootCtx, a); err != nil {
		slog.WarnContext(u.rootCtx, "failed to apply session action", "action", a.Name(), "error", err)
	}
}
