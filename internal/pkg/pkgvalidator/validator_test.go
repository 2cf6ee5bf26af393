package pkgvalidator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
	Page  int    `json:"page" validate:"min=1"`
}

func TestValidateOK(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(themeRequest{Theme: "dark", Page: 1}))
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(themeRequest{Theme: "blue", Page: 0})
	require.Error(t, err)

	var ferr *FieldError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "must be one of [light dark]", ferr.Fields()["theme"])
	assert.Equal(t, "must be at least 1", ferr.Fields()["page"])

	var perr *pkgerror.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pkgerror.CodeInvalidInput, perr.Code())
}

func TestValidateRequired(t *testing.T) {
	v := New()

	err := v.Validate(themeRequest{Page: 2})
	var ferr *FieldError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "is required", ferr.Fields()["theme"])
}
