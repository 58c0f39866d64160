package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {

	run := func(args ...string) (int, string, string) {
		out := &bytes.Buffer{}
		errOut := &bytes.Buffer{}
		code := _main(append([]string{"solcheck"}, args...), out, errOut)
		return code, out.String(), errOut.String()
	}

	t.Run("no input files", func(t *testing.T) {
		code, _, errOut := run()
		assert.Equal(t, ERROR_STATUS_CODE, code)
		assert.Contains(t, errOut, "usage:")
	})

	t.Run("clean AST", func(t *testing.T) {
		code, out, _ := run("-no-color", "../../internal/solcast/testdata/owned.json")
		assert.Zero(t, code)
		assert.Empty(t, out)
	})

	t.Run("AST with violations", func(t *testing.T) {
		code, out, _ := run("-no-color", "testdata/bad.json")
		assert.Equal(t, ERROR_STATUS_CODE, code)
		assert.Contains(t, out, "construction control flow ends without initializing")
		assert.Contains(t, out, "not initialized: ")
	})

	t.Run("missing input file", func(t *testing.T) {
		code, _, errOut := run("does-not-exist.json")
		assert.Equal(t, ERROR_STATUS_CODE, code)
		assert.Contains(t, errOut, "failed to read input")
	})

	t.Run("skip-contracts configuration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "solcheck.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("skip-contracts:\n  - Bad\n"), 0o600))

		code, out, _ := run("-no-color", "-config", configPath, "testdata/bad.json")
		assert.Zero(t, code)
		assert.Empty(t, out)
	})
}

func TestReadConfig(t *testing.T) {
	t.Run("empty path gives the zero configuration", func(t *testing.T) {
		config, err := readConfig("")
		require.NoError(t, err)
		assert.Empty(t, config.SkipContracts)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "solcheck.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("skip-contracts: {"), 0o600))

		_, err := readConfig(configPath)
		assert.ErrorContains(t, err, "invalid configuration file")
	})
}
