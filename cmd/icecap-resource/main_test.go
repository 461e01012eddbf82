// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/icecap/config"
	"github.com/suprsokr/icecap/internal/testutil"
	"github.com/suprsokr/icecap/minimap"
)

func mapDBC(t *testing.T) []byte {
	b := testutil.NewDBC(t, 13, 52)
	values := []any{uint32(0), "Azeroth", uint32(0), uint32(0), "Eastern Kingdoms"}
	for range 8 {
		values = append(values, "")
	}
	return b.Row(values...).Bytes()
}

// writeDataRoot writes a small client data directory and returns its path.
func writeDataRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Data")
	require.NoError(t, os.MkdirAll(root, 0o755))

	testutil.NewArchive(t).WithListfile().WithAttributes().
		Add("Interface\\Readme.txt", []byte("common readme")).
		Add(minimap.MapDatabasePath, mapDBC(t)).
		Add(minimap.TranslatePath, []byte("dir: Azeroth\nAzeroth\\map1_2.blp\tabc.blp\n")).
		WriteFile(filepath.Join(root, "common.MPQ"))
	testutil.NewArchive(t).WithListfile().
		Add("Interface\\Readme.txt", []byte("patched readme")).
		WriteFile(filepath.Join(root, "patch.MPQ"))
	return root
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunList(t *testing.T) {
	out, _, err := runCLI(t, "--data-root", writeDataRoot(t), "list")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s\n%s\n%s\n",
		minimap.MapDatabasePath, "Interface\\Readme.txt", minimap.TranslatePath), out)
}

func TestRunCat(t *testing.T) {
	root := writeDataRoot(t)

	out, _, err := runCLI(t, "--data-root", root, "cat", "interface/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "patched readme", out)

	_, _, err = runCLI(t, "--data-root", root, "cat", "missing.txt")
	assert.ErrorContains(t, err, "missing.txt: not found")
}

func TestRunExists(t *testing.T) {
	root := writeDataRoot(t)

	out, _, err := runCLI(t, "--data-root", root, "exists", "Interface\\Readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, _, err = runCLI(t, "--data-root", root, "exists", "missing.txt")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestRunInfo(t *testing.T) {
	root := writeDataRoot(t)
	out, _, err := runCLI(t, "--data-root", root, "info", filepath.Join(root, "common.MPQ"))
	require.NoError(t, err)
	assert.Contains(t, out, "format version:  0\n")
	assert.Contains(t, out, "block table:     5 entries\n")
	assert.Contains(t, out, "listed files:    3\n")
	assert.Contains(t, out, "attributes:      yes\n")
	assert.Contains(t, out, "signed:          no\n")
}

func TestRunDBC(t *testing.T) {
	root := writeDataRoot(t)

	out, _, err := runCLI(t, "--data-root", root, "dbc", minimap.MapDatabasePath)
	require.NoError(t, err)
	assert.Contains(t, out, "# 1 records, 13 fields, 52 bytes per record\n")

	out, _, err = runCLI(t, "--data-root", root, "dbc", "--id", "0", minimap.MapDatabasePath)
	require.NoError(t, err)
	assert.Contains(t, out, "\n0\t")

	_, _, err = runCLI(t, "--data-root", root, "dbc", "--id", "7", minimap.MapDatabasePath)
	assert.ErrorContains(t, err, "no record with id 7")
}

func TestRunMinimap(t *testing.T) {
	out, _, err := runCLI(t, "--data-root", writeDataRoot(t), "minimap")
	require.NoError(t, err)
	assert.Equal(t, "0\tAzeroth\tEastern Kingdoms\t1 tiles\n", out)
}

func TestRunConfigFile(t *testing.T) {
	root := writeDataRoot(t)
	path := filepath.Join(t.TempDir(), "icecap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_root: "+root+"\nlog_level: warn\n"), 0o644))

	out, _, err := runCLI(t, "--config", path, "cat", "Interface\\Readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "patched readme", out)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no command", nil, "no command given"},
		{"unknown command", []string{"--data-root", "/x", "frobnicate"}, `unknown command "frobnicate"`},
		{"no data root", []string{"list"}, "data_root is required"},
		{"bad log level", []string{"--data-root", "/x", "--log-level", "loud", "list"}, "invalid log_level"},
		{"missing argument", []string{"--data-root", "/x", "cat"}, "expected exactly one file name"},
		{"bad flag", []string{"--nope"}, "unknown flag"},
		{"id out of range", []string{"--data-root", "/x", "dbc", "--id", "4294967296", "Map.dbc"}, "--id 4294967296 is out of range"},
		{"negative id", []string{"--data-root", "/x", "dbc", "--id=-1", "Map.dbc"}, "--id -1 is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRunHelp(t *testing.T) {
	_, stderr, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stderr, "dbc [--id N] <name>")
	assert.Contains(t, stderr, "--data-root")
}
