package analyzer

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type Kind string

const (
	// KindStatus: the service answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindNoResponse: the request was sent but no response came back.
	KindNoResponse Kind = "no_response"
	// KindSetup: the request could not be built, or the answer could not be read.
	KindSetup Kind = "setup"
)

// Error is a classified analysis failure. Error() is the message shown to
// the user.
type Error struct {
	Kind       Kind
	Status     int
	StatusText string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("Upload failed: %d %s", e.Status, e.StatusText)
	case KindNoResponse:
		return "No response from server."
	default:
		if e.Err == nil {
			return "Error: unknown"
		}
		return "Error: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func statusError(resp *http.Response) *Error {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}

	return &Error{Kind: KindStatus, Status: resp.StatusCode, StatusText: text}
}

func noResponse(err error) *Error {
	return &Error{Kind: KindNoResponse, Err: err}
}

func setupError(err error) *Error {
	return &Error{Kind: KindSetup, Err: err}
}
