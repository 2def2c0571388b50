package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/tsbind/config"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGenerateWritesModulesAndIndex(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "geo/Point.java", "package geo;\n\npublic class Point {\n    public int x;\n}\n")
	writeSource(t, src, "app/Main.java", "package app;\n\nimport geo.Point;\n\npublic class Main {\n    public Point origin;\n}\n")
	writeSource(t, src, "app/Broken.java", "package app;\n\npublic class Broken {\n")

	cfg := config.Default()
	cfg.Sources = []string{src}
	cfg.OutDir = filepath.Join(t.TempDir(), "types")
	cfg.Workers = 2

	result, files, err := generate(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutDir, "geo.d.ts"),
		filepath.Join(cfg.OutDir, "app.d.ts"),
		filepath.Join(cfg.OutDir, "index.d.ts"),
	}, files)

	index, err := os.ReadFile(filepath.Join(cfg.OutDir, "index.d.ts"))
	require.NoError(t, err)
	assert.Equal(t, "/// <reference path=\"geo.d.ts\" />\n/// <reference path=\"app.d.ts\" />\n", string(index))

	app, err := os.ReadFile(filepath.Join(cfg.OutDir, "app.d.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "import { Point as geo_Point } from 'geo';")
	assert.Contains(t, string(app), "origin: geo_Point;")

	var out bytes.Buffer
	report(&out, result, files)
	assert.Contains(t, out.String(), "app.Broken")
	assert.Contains(t, out.String(), "2 passed, 1 failed, 3 files written")
}

func TestGenerateCancelled(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "geo/Point.java", "package geo;\npublic class Point {}\n")

	cfg := config.Default()
	cfg.Sources = []string{src}
	cfg.OutDir = filepath.Join(t.TempDir(), "types")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := generate(ctx, cfg, io.Discard)
	assert.Error(t, err)
	assert.NoDirExists(t, cfg.OutDir)
}
