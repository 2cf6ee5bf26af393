package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

const (
	MsgInvalidType = "Only CSV or Excel files are allowed."
	MsgTooLarge    = "File must be smaller than 10MB."
	MsgEmpty       = "File is empty."
)

var excelName = regexp.MustCompile(`(?i)\.(xls|xlsx)$`)

// Upload is a file offered to intake. Size is the size declared by the
// client; a negative value means unknown.
type Upload struct {
	Name         string
	Size         int64
	MIMEType     string
	LastModified time.Time
	Body         io.Reader
}

// Classify reports the kind of a file from its name and MIME type, or false
// when the file is neither CSV nor Excel.
func Classify(name, mimeType string) (entity.FileKind, bool) {
	lower := strings.ToLower(name)
	mimeType = strings.ToLower(mimeType)

	if mimeType == "text/csv" || strings.HasSuffix(lower, ".csv") {
		return entity.FileKindCSV, true
	}

	if strings.Contains(mimeType, "sheet") || excelName.MatchString(name) {
		if path.Ext(lower) == ".xls" {
			return entity.FileKindXLS, true
		}
		return entity.FileKindXLSX, true
	}

	return "", false
}

// SelectFile validates an upload and, when accepted, makes it the current
// file and starts preview parsing and remote analysis for it. A rejected
// upload leaves the session untouched.
func (u *Usecase) SelectFile(ctx context.Context, in Upload) (session.State, error) {
	if err := u.ready(); err != nil {
		return session.State{}, err
	}

	file, err := u.accept(in)
	if err != nil {
		u.metrics.ObserveUpload("rejected")
		var perr *pkgerror.Error
		if errors.As(err, &perr) && perr.Type() == pkgerror.TypeValidation {
			u.notify(ctx, entity.NotificationError, perr.Msg())
		}
		return session.State{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	gen := u.gen.Generate()
	runCtx := u.newRun()

	st, err := u.store.Dispatch(ctx, session.SetFile{Generation: gen, File: file})
	if err != nil {
		u.stopRun()
		return session.State{}, normalizeErr(err)
	}
	u.metrics.ObserveUpload("accepted")

	u.startParse(runCtx, gen, file, st.Options)
	if st, err = u.startAnalysis(ctx, runCtx, gen, file); err != nil {
		return session.State{}, err
	}

	return st, nil
}

func (u *Usecase) accept(in Upload) (*entity.UploadedFile, error) {
	kind, ok := Classify(in.Name, in.MIMEType)
	if !ok {
		return nil, pkgerror.NewRejectedFile(MsgInvalidType, pkgerror.CodeUnsupportedMedia)
	}

	if in.Size > u.maxBytes {
		return nil, pkgerror.NewRejectedFile(MsgTooLarge, pkgerror.CodeTooLarge)
	}
	if in.Body == nil {
		return nil, pkgerror.NewRejectedFile(MsgEmpty, pkgerror.CodeInvalidInput)
	}

	content, err := io.ReadAll(io.LimitReader(in.Body, u.maxBytes+1))
	if err != nil {
		return nil, pkgerror.NewServer(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(content)) > u.maxBytes {
		return nil, pkgerror.NewRejectedFile(MsgTooLarge, pkgerror.CodeTooLarge)
	}
	if len(content) == 0 {
		return nil, pkgerror.NewRejectedFile(MsgEmpty, pkgerror.CodeInvalidInput)
	}

	return &entity.UploadedFile{
		Name:         in.Name,
		Size:         int64(len(content)),
		MIMEType:     in.MIMEType,
		LastModified: in.LastModified,
		Kind:         kind,
		Content:      content,
	}, nil
}
