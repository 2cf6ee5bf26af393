package entity

import "time"

// UploadedFile is the file selected for the current session. Content is the
// full payload; it is never mutated after the file is accepted.
type UploadedFile struct {
	Name         string
	Size         int64
	MIMEType     string
	LastModified time.Time
	Kind         FileKind
	Content      []byte
}

type FileOptions struct {
	Header         bool
	SkipEmptyLines bool
}

func DefaultFileOptions() FileOptions {
	return FileOptions{Header: true, SkipEmptyLines: true}
}
