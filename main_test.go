package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_regression/internal/config"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "open"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("reporter"))
	assert.NotNil(t, root.PersistentFlags().Lookup("base-url"))
}

func TestRunMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "absent.json")})
	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunRejectsReporterOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", path, "--reporter", "tap"})
	err := root.Execute()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestFlagsOverrideFileValues(t *testing.T) {
	t.Setenv("E2E_BASE_URL", "")
	t.Setenv("E2E_REPORTER", "")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"reporter":"mocha"}`), 0o644))

	_, err := loadConfig(&options{configPath: path})
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg, err := loadConfig(&options{configPath: path, reporter: "json", baseURL: "http://127.0.0.1:1/"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Reporter)
	assert.Equal(t, "http://127.0.0.1:1/", cfg.BaseURL)
}
