package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDiffScenario(t *testing.T) {
	previous := FromLines("<a> <b> <c> .\n")
	current := FromLines("<a> <b> <c> .\n", "<d> <e> <f> .\n")
	d := Diff(previous, current)
	assert.Equal(t, []string{"<d> <e> <f> .\n"}, d.Add)
	assert.Empty(t, d.Sub)
}

func TestDiffIdempotent(t *testing.T) {
	run := FromLines("<a> <b> <c> .\n", "<d> <e> \"x\" .\n")
	d := Diff(run, run)
	assert.True(t, d.Empty())
	assert.Equal(t, 2, run.Len())
}

func TestDiffSymmetric(t *testing.T) {
	a := FromLines("<1> <p> <o> .\n", "<2> <p> <o> .\n", "<3> <p> <o> .\n")
	b := FromLines("<2> <p> <o> .\n", "<4> <p> <o> .\n")
	ab := Diff(a, b)
	ba := Diff(b, a)
	assert.Equal(t, ab.Add, ba.Sub)
	assert.Equal(t, ab.Sub, ba.Add)
	assert.Equal(t, []string{"<4> <p> <o> .\n"}, ab.Add)
	assert.Equal(t, []string{"<1> <p> <o> .\n", "<3> <p> <o> .\n"}, ab.Sub)
}

func TestDiffIsTextual(t *testing.T) {
	d := Diff(FromLines("<a> <b> \"c\" .\n"), FromLines("<a> <b> \"c\"^^<x> .\n"))
	assert.Len(t, d.Add, 1)
	assert.Len(t, d.Sub, 1)
}

func TestLoadSkipsOutputsAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orgs.nt", "<a> <b> <c> .\n\n<d> <e> <f> .\n")
	writeFile(t, dir, "people.nt", "<a> <b> <c> .\n<g> <h> <i> .")
	writeFile(t, dir, AddFile, "<x> <y> <z> .\n")
	writeFile(t, dir, SubFile, "<x> <y> <z> .\n")
	writeFile(t, dir, "notes.txt", "<n> <o> <t> .\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.nt"), 0o755))

	s, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("<d> <e> <f> .\n"))
	assert.True(t, s.Contains("<g> <h> <i> ."))
	assert.False(t, s.Contains("<x> <y> <z> .\n"))
}

func TestEmptyPreviousAddsEverything(t *testing.T) {
	current := t.TempDir()
	writeFile(t, current, "orgs.nt", "<b> <b> <b> .\n<a> <a> <a> .\n")

	for _, previous := range []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		d, err := DiffDirs(context.Background(), previous, current)
		require.NoError(t, err)
		assert.Equal(t, []string{"<a> <a> <a> .\n", "<b> <b> <b> .\n"}, d.Add)
		assert.Empty(t, d.Sub)
	}
}

func TestWriteDeltaIsRerunnable(t *testing.T) {
	previous := t.TempDir()
	current := t.TempDir()
	writeFile(t, previous, "orgs.nt", "<a> <b> <c> .\n")
	writeFile(t, current, "orgs.nt", "<a> <b> <c> .\n<d> <e> <f> .\n")

	for range 2 {
		d, err := DiffDirs(context.Background(), previous, current)
		require.NoError(t, err)
		require.NoError(t, WriteDelta(current, d))
	}

	add, err := os.ReadFile(filepath.Join(current, AddFile))
	require.NoError(t, err)
	assert.Equal(t, "<d> <e> <f> .\n", string(add))
	sub, err := os.ReadFile(filepath.Join(current, SubFile))
	require.NoError(t, err)
	assert.Empty(t, sub)

	orgs, err := os.ReadFile(filepath.Join(previous, "orgs.nt"))
	require.NoError(t, err)
	assert.Equal(t, "<a> <b> <c> .\n", string(orgs))
}

func TestLoadHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orgs.nt", "<a> <b> <c> .\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteLinesReportsFailures(t *testing.T) {
	err := WriteDelta(filepath.Join(t.TempDir(), "missing"), Delta{Add: []string{"<a> <b> <c> .\n"}})
	assert.ErrorContains(t, err, "create ")

	if _, statErr := os.Stat("/dev/full"); statErr != nil {
		t.Skip("no /dev/full on this platform")
	}
	err = writeLines("/dev/full", []string{"<a> <b> <c> .\n"})
	assert.ErrorContains(t, err, "flush /dev/full")
}
