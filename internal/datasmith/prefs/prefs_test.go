package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.yaml")
	store := NewFileStore(path, entity.ThemeLight)

	assert.Equal(t, entity.ThemeLight, store.Theme())

	require.NoError(t, store.SaveTheme(entity.ThemeDark))
	assert.Equal(t, entity.ThemeDark, store.Theme())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme: dark\n", string(data))

	reopened := NewFileStore(path, entity.ThemeLight)
	assert.Equal(t, entity.ThemeDark, reopened.Theme())
}

func TestFileStoreRejectsInvalidTheme(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "preferences.yaml"), "")
	assert.Error(t, store.SaveTheme("neon"))
}

func TestFileStoreFallsBackOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: neon\n"), 0o600))
	assert.Equal(t, entity.ThemeDark, NewFileStore(path, entity.ThemeDark).Theme())

	require.NoError(t, os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600))
	assert.Equal(t, entity.ThemeDark, NewFileStore(path, entity.ThemeDark).Theme())
}

func TestSystemTheme(t *testing.T) {
	tests := []struct {
		name       string
		configured entity.Theme
		colorfgbg  string
		want       entity.Theme
	}{
		{name: "configured wins", configured: entity.ThemeDark, colorfgbg: "0;15", want: entity.ThemeDark},
		{name: "nothing set", want: entity.ThemeLight},
		{name: "dark background", colorfgbg: "15;0", want: entity.ThemeDark},
		{name: "three fields", colorfgbg: "15;default;8", want: entity.ThemeDark},
		{name: "light background", colorfgbg: "0;15", want: entity.ThemeLight},
		{name: "garbage", colorfgbg: "x;y", want: entity.ThemeLight},
		{name: "invalid configured ignored", configured: "neon", colorfgbg: "15;0", want: entity.ThemeDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SystemTheme(tt.configured, tt.colorfgbg))
		})
	}
}
