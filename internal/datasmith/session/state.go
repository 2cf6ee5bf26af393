package session

import "github.com/seanodera/Datasmith/internal/datasmith/entity"

// State is one immutable snapshot of the session. Pointer fields reference
// values that are never mutated once stored, so snapshots can be shared.
type State struct {
	// Generation identifies the current upload; async results carry the
	// generation they were started for and are dropped when it moved on.
	Generation int64
	File       *entity.UploadedFile
	Options    entity.FileOptions
	Table      *entity.ParsedTable
	Analysis   *entity.AnalysisResponse
	Progress   int
	Theme      entity.Theme
	Loading    bool
	Parsing    bool
	Err        string

	// ParseErr is the last preview failure for the current file and options.
	ParseErr string
}

// Initial returns the state of a fresh session with the given theme.
func Initial(theme entity.Theme) State {
	if !theme.Valid() {
		theme = entity.ThemeLight
	}

	return State{
		Options: entity.DefaultFileOptions(),
		Theme:   theme,
	}
}

// Current reports whether gen is the generation of the file in the state.
func (s State) Current(gen int64) bool {
	return s.File != nil && s.Generation == gen
}

// NeedsParse reports whether the current file has no preview for the current
// options, no parse is running and none has failed.
func (s State) NeedsParse() bool {
	return s.File != nil && s.Table == nil && !s.Parsing && s.ParseErr == ""
}
