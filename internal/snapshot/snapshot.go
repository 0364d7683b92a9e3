// Package snapshot loads the statement files of a run and computes the
// add/sub change-set between two runs.
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// File names of the change-set outputs. They are never read back as part of
// a snapshot.
const (
	AddFile = "add.nt"
	SubFile = "sub.nt"
)

// Pattern selects the statement files of a snapshot directory.
const Pattern = "*.nt"

// Snapshot is the set of statement lines of one run. Lines keep their
// terminator; equality is purely textual.
type Snapshot map[string]struct{}

// Len is the number of distinct statement lines.
func (s Snapshot) Len() int { return len(s) }

// Contains reports whether line is part of the snapshot.
func (s Snapshot) Contains(line string) bool {
	_, ok := s[line]
	return ok
}

// FromLines builds a snapshot from literal lines, ignoring blank ones.
func FromLines(lines ...string) Snapshot {
	s := make(Snapshot, len(lines))
	for _, l := range lines {
		s.add(l)
	}
	return s
}

func (s Snapshot) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s[line] = struct{}{}
}

// Files lists the statement files of dir, change-set outputs excluded. A
// missing directory has no files.
func Files(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if m == AddFile || m == SubFile {
			continue
		}
		files = append(files, filepath.Join(dir, m))
	}
	slices.Sort(files)
	return files, nil
}

// Load reads every statement file of dir. An empty or missing directory
// yields an empty snapshot.
func Load(ctx context.Context, dir string) (Snapshot, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	s := make(Snapshot)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := loadFile(s, name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func loadFile(s Snapshot, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("open statements: %w", err)
	}
	defer func() { _ = f.Close() }()
	r := bufio.NewReaderSize(f, 1<<20)
	for {
		line, err := r.ReadString('\n')
		s.add(line)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
}

// Delta is the change-set between two snapshots. Both sides are sorted.
type Delta struct {
	Add []string
	Sub []string
}

// Empty reports whether the snapshots were identical.
func (d Delta) Empty() bool { return len(d.Add) == 0 && len(d.Sub) == 0 }

// Diff returns the lines only in current (Add) and only in previous (Sub).
// Neither input is modified.
func Diff(previous, current Snapshot) Delta {
	return Delta{
		Add: minus(current, previous),
		Sub: minus(previous, current),
	}
}

func minus(a, b Snapshot) []string {
	out := []string{}
	for line := range a {
		if !b.Contains(line) {
			out = append(out, line)
		}
	}
	slices.Sort(out)
	return out
}

// DiffDirs loads both directories concurrently and diffs them.
func DiffDirs(ctx context.Context, previousDir, currentDir string) (Delta, error) {
	var previous, current Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		previous, err = Load(gctx, previousDir)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = Load(gctx, currentDir)
		return err
	})
	if err := g.Wait(); err != nil {
		return Delta{}, fmt.Errorf("load snapshots: %w", err)
	}
	return Diff(previous, current), nil
}

// WriteDelta writes add.nt and sub.nt into dir, replacing earlier outputs.
func WriteDelta(dir string, d Delta) error {
	if err := writeLines(filepath.Join(dir, AddFile), d.Add); err != nil {
		return err
	}
	return writeLines(filepath.Join(dir, SubFile), d.Sub)
}

func writeLines(name string, lines []string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if !strings.HasSuffix(l, "\n") {
			if err := w.WriteByte('\n'); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return f.Close()
}
