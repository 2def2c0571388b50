package scanner

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/tsbind/java"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func sampleTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "src/main/java/geo/Point.java", `
package geo;

public class Point {
    public int x;
    public int getX() { return x; }
}
`)
	writeFile(t, root, "src/main/java/geo/Shape.java", `
package geo;

import geo.util.*;

public interface Shape {
    Area area();
}
`)
	writeFile(t, root, "src/main/java/geo/util/Area.java", `
package geo.util;

public final class Area {}
`)
	writeFile(t, root, "src/main/java/geo/Internal.java", `
package geo;

class Internal {}
`)
	writeFile(t, root, "src/main/java/geo/Broken.java", `
package geo;

public class Broken {
    int x = ;
}
`)
	writeFile(t, root, "src/main/java/geo/package-info.java", "package geo;\n")
	writeFile(t, root, "src/test/java/geo/PointTest.java", "package geo;\npublic class PointTest {}\n")
	writeFile(t, root, ".git/Ignored.java", "public class Ignored {}\n")
	return root
}

func TestUnitName(t *testing.T) {
	tests := map[string]string{
		"src/main/java/geo/Point.java":     "geo.Point",
		"module/src/test/java/a/B.java":    "a.B",
		"com/example/Thing.java":           "com.example.Thing",
		"Top.java":                         "Top",
		"lib/src/java/x/y/Deep.java":       "x.y.Deep",
	}
	for in, want := range tests {
		assert.Equal(t, want, UnitName(in), in)
	}
}

func TestDiscoverDirectory(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)

	units, diags, err := s.Discover([]string{sampleTree(t)})
	require.NoError(t, err)
	assert.Empty(t, diags)

	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"geo.Broken", "geo.Internal", "geo.Point", "geo.PointTest", "geo.Shape", "geo.util.Area"}, names)
}

func TestDiscoverGlobFilters(t *testing.T) {
	s, err := New(Options{
		Include: []string{"src/main/**"},
		Exclude: []string{"**/Broken.java", "**/util/**"},
	})
	require.NoError(t, err)

	units, _, err := s.Discover([]string{sampleTree(t)})
	require.NoError(t, err)

	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"geo.Internal", "geo.Point", "geo.Shape"}, names)
}

func TestInvalidGlob(t *testing.T) {
	_, err := New(Options{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestDiscoverMissingInput(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	_, _, err = s.Discover([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestScanCountsAndDiagnostics(t *testing.T) {
	var calls int
	s, err := New(Options{Workers: 1, Progress: func(done, total int) {
		calls++
		assert.Equal(t, 6, total)
	}})
	require.NoError(t, err)

	result, err := s.Scan(context.Background(), []string{sampleTree(t)})
	require.NoError(t, err)

	assert.Equal(t, 6, calls)
	assert.Equal(t, 4, result.Passed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 6, result.Total())
	assert.Equal(t, "5 passed, 1 failed", result.Summary())

	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, "geo.Broken", d.Unit)
	assert.Equal(t, CategoryParse, d.Category)
	assert.NotEmpty(t, d.Problems)

	require.Len(t, result.Declarations, 4)
	assert.Equal(t, "geo.Point", result.Declarations[0].Name())
	assert.Equal(t, "geo.Shape", result.Declarations[2].Name())
}

func TestScanStrictImportsReportsUnresolved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/Use.java", `
package a;

import b.*;

public class Use {
    public Missing m;
}
`)
	s, err := New(Options{Strict: true, Workers: 2})
	require.NoError(t, err)

	result, err := s.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, CategoryUnresolved, result.Diagnostics[0].Category)
}

func TestScanZipArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sources.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"geo/Point.java":        "package geo;\npublic class Point { public int x; }\n",
		"geo/package-info.java": "package geo;\n",
		"META-INF/MANIFEST.MF":  "Manifest-Version: 1.0\n",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s, err := New(Options{})
	require.NoError(t, err)
	result, err := s.Scan(context.Background(), []string{archive})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Declarations, 1)
	assert.Equal(t, "geo.Point", result.Declarations[0].Name())
}

func TestScanSingleFileUsesPackageName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Loose.java", "package far.away;\npublic class Loose {}\n")

	s, err := New(Options{})
	require.NoError(t, err)
	result, err := s.Scan(context.Background(), []string{filepath.Join(root, "Loose.java")})
	require.NoError(t, err)
	require.Len(t, result.Declarations, 1)
	assert.Equal(t, "far.away.Loose", result.Declarations[0].Name())
}

func TestScanCancelled(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx, []string{sampleTree(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanNamesFollowPackageDeclaration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/com/foo/Color.java", "package com.foo;\npublic enum Color { RED }\n")
	writeFile(t, root, "src/com/bar/Palette.java", `
package com.bar;

import com.foo.*;
import java.util.*;

public class Palette {
    public Color main;
}
`)

	s, err := New(Options{})
	require.NoError(t, err)

	units, _, err := s.Discover([]string{root})
	require.NoError(t, err)
	known := KnownTypes(units)
	assert.True(t, known["com.foo.Color"])
	assert.False(t, known["src.com.foo.Color"])

	result, err := s.Run(context.Background(), units)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Declarations, 2)

	palette, color := result.Declarations[0], result.Declarations[1]
	assert.Equal(t, "com.bar.Palette", palette.Name())
	assert.Equal(t, "com.foo.Color", color.Name())
	assert.Equal(t, "java.lang.Enum/1<com.foo.Color>", color.SuperTypes[0].Key())
	assert.Equal(t, "com.foo.Color", palette.Members[0].(java.Field).Type.Key())
}
