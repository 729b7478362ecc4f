package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/qrcodemaker/generate"
)

func testGlobals(t *testing.T) (globalFlags, string) {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("QRM_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("QRM_OUTPUT_DIR", filepath.Join(dir, "data", "output"))
	t.Setenv("QRM_LOG_LEVEL", "error")
	return globalFlags{configPath: filepath.Join(dir, "config.yaml")}, dir
}

func TestRunString_WritesImage(t *testing.T) {
	g, dir := testGlobals(t)

	err := runString(g, imageFlags{source: "Hello", output: filepath.Join(dir, "hello"), format: "png", size: 120})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "hello.png"))
}

func TestRunString_DefaultFormatFromConfig(t *testing.T) {
	g, dir := testGlobals(t)

	require.NoError(t, runString(g, imageFlags{source: "Hello", output: filepath.Join(dir, "hello")}))
	assert.FileExists(t, filepath.Join(dir, "hello.jpg"))
}

func TestRunString_InvalidSize(t *testing.T) {
	g, dir := testGlobals(t)

	err := runString(g, imageFlags{source: "Hello", output: filepath.Join(dir, "x"), size: 5})
	assert.Error(t, err)
}

func TestRunTextFile_MissingSource(t *testing.T) {
	g, dir := testGlobals(t)

	err := runTextFile(g, imageFlags{source: filepath.Join(dir, "nope.txt"), output: filepath.Join(dir, "x")})
	require.Error(t, err)
	assert.Equal(t, generate.FileNotFound, generate.CodeOf(err))
	assert.Contains(t, err.Error(), "not exist!")
}

func TestRunArchFile_UsesFolderAndHistory(t *testing.T) {
	g, dir := testGlobals(t)
	src := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(src, []byte("a|first\nb\n"), 0o644))

	out := filepath.Join(dir, "codes")
	header := "X-"
	require.NoError(t, runArchFile(g, imageFlags{source: src, output: out, format: "gif", size: 64}, &header, "drop"))
	assert.FileExists(t, filepath.Join(out, "first.gif"))
	assert.FileExists(t, filepath.Join(out, "0.gif"))

	require.NoError(t, runHistory(g, 5, nil))
}

func TestRunArchFile_InvalidPolicy(t *testing.T) {
	g, dir := testGlobals(t)

	err := runArchFile(g, imageFlags{source: filepath.Join(dir, "x.txt")}, nil, "keep")
	assert.Error(t, err)
}

func TestSetup_DryRunFlag(t *testing.T) {
	g, dir := testGlobals(t)
	g.dryRun = true

	require.NoError(t, runString(g, imageFlags{source: "Hello", output: filepath.Join(dir, "dry"), format: "png"}))
	assert.NoFileExists(t, filepath.Join(dir, "dry.png"))
}
