package session

import "github.com/seanodera/Datasmith/internal/datasmith/entity"

// Action is a transition message. The set is closed: only types in this file
// implement it, and each apply is a total function of the previous state.
type Action interface {
	Name() string
	apply(s State) State
}

// SetFile makes file the current file under a new generation and clears every
// result derived from the previous one.
type SetFile struct {
	Generation int64
	File       *entity.UploadedFile
}

func (SetFile) Name() string { return "session/setFile" }

func (a SetFile) apply(s State) State {
	s.Generation = a.Generation
	s.File = a.File
	s.Table = nil
	s.Analysis = nil
	s.Progress = 0
	s.Loading = false
	s.Parsing = false
	s.Err = ""
	s.ParseErr = ""
	return s
}

// SetOptions changes parse options; the preview is discarded so it gets
// regenerated for the new options.
type SetOptions struct {
	Options entity.FileOptions
}

func (SetOptions) Name() string { return "session/setFileOptions" }

func (a SetOptions) apply(s State) State {
	if s.Options == a.Options {
		return s
	}
	s.Options = a.Options
	s.Table = nil
	s.Parsing = false
	s.ParseErr = ""
	return s
}

// SetProgress records upload progress for a generation. Values are clamped to
// 0..100 and never move backwards.
type SetProgress struct {
	Generation int64
	Percent    int
}

func (SetProgress) Name() string { return "session/setProgress" }

func (a SetProgress) apply(s State) State {
	if !s.Current(a.Generation) || !s.Loading {
		return s
	}
	p := min(max(a.Percent, 0), 100)
	if p > s.Progress {
		s.Progress = p
	}
	return s
}

// SetTheme switches the theme; anything but light or dark is ignored.
type SetTheme struct {
	Theme entity.Theme
}

func (SetTheme) Name() string { return "session/setTheme" }

func (a SetTheme) apply(s State) State {
	if !a.Theme.Valid() {
		return s
	}
	s.Theme = a.Theme
	return s
}

// Reset returns to the initial state, keeping only the theme. Generation moves
// on so results still in flight are ignored when they land.
type Reset struct {
	Generation int64
}

func (Reset) Name() string { return "session/resetState" }

func (a Reset) apply(s State) State {
	next := Initial(s.Theme)
	next.Generation = a.Generation
	return next
}

// AnalyzePending marks the current file as uploading and clears the previous
// analysis, error and progress.
type AnalyzePending struct {
	Generation int64
}

func (AnalyzePending) Name() string { return "session/uploadFile/pending" }

func (a AnalyzePending) apply(s State) State {
	if !s.Current(a.Generation) {
		return s
	}
	s.Loading = true
	s.Err = ""
	s.Analysis = nil
	s.Progress = 0
	return s
}

// AnalyzeFulfilled stores the analysis of an upload still in flight and sets
// progress to 100.
type AnalyzeFulfilled struct {
	Generation int64
	Result     *entity.AnalysisResponse
}

func (AnalyzeFulfilled) Name() string { return "session/uploadFile/fulfilled" }

func (a AnalyzeFulfilled) apply(s State) State {
	if !s.Current(a.Generation) || !s.Loading {
		return s
	}
	s.Loading = false
	s.Analysis = a.Result
	s.Progress = 100
	return s
}

// AnalyzeRejected ends an upload still in flight with its error message.
type AnalyzeRejected struct {
	Generation int64
	Err        string
}

func (AnalyzeRejected) Name() string { return "session/uploadFile/rejected" }

func (a AnalyzeRejected) apply(s State) State {
	if !s.Current(a.Generation) || !s.Loading {
		return s
	}
	s.Loading = false
	s.Err = a.Err
	s.Analysis = nil
	return s
}

// ParsePending marks the preview as being prepared for the current file and
// options.
type ParsePending struct {
	Generation int64
	Options    entity.FileOptions
}

func (ParsePending) Name() string { return "session/parseFile/pending" }

func (a ParsePending) apply(s State) State {
	if !s.Current(a.Generation) || s.Options != a.Options {
		return s
	}
	s.Parsing = true
	s.Table = nil
	s.ParseErr = ""
	return s
}

// ParseFulfilled lands when generation and options still match, even if the
// options were toggled away and back while the parse ran.
type ParseFulfilled struct {
	Generation int64
	Options    entity.FileOptions
	Table      *entity.ParsedTable
}

func (ParseFulfilled) Name() string { return "session/parseFile/fulfilled" }

func (a ParseFulfilled) apply(s State) State {
	if !s.Current(a.Generation) || s.Options != a.Options {
		return s
	}
	s.Parsing = false
	s.Table = a.Table
	return s
}

// ParseRejected records a preview failure for the current file and options.
type ParseRejected struct {
	Generation int64
	Options    entity.FileOptions
	Err        string
}

func (ParseRejected) Name() string { return "session/parseFile/rejected" }

func (a ParseRejected) apply(s State) State {
	if !s.Current(a.Generation) || s.Options != a.Options {
		return s
	}
	s.Parsing = false
	s.Err = a.Err
	s.ParseErr = a.Err
	s.Table = nil
	return s
}
