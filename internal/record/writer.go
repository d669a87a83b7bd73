package record

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
)

// Skip reasons reported in file.skipped events.
const (
	ReasonExists  = "exists"
	ReasonPattern = "pattern"
)

// Options control how a Writer materializes a record.
type Options struct {
	// Overwrite replaces files that already exist.
	Overwrite bool
	// Skip holds doublestar patterns matched against relative paths.
	Skip []string
	// DryRun writes nothing and prints a diff per file to Diffs.
	DryRun bool
	Diffs  io.Writer
	Bus    *event.Bus
}

// Writer writes records below a root directory.
type Writer struct {
	fs   afero.Fs
	root string
	opts Options
	log  zerolog.Logger
}

// Report lists what a Write did. In dry-run mode Written lists the files
// that would have been written.
type Report struct {
	Written []string
	Skipped map[string]string
}

// NewWriter validates the skip patterns and returns a writer rooted at root.
func NewWriter(fsys afero.Fs, root string, opts Options) (*Writer, error) {
	for _, p := range opts.Skip {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid skip pattern %q", p)
		}
	}
	if opts.Diffs == nil {
		opts.Diffs = io.Discard
	}
	return &Writer{fs: fsys, root: root, opts: opts, log: logging.For("writer")}, nil
}

// Write materializes every file of rec. It stops at the first write error.
func (w *Writer) Write(rec *Record) (*Report, error) {
	report := &Report{Skipped: make(map[string]string)}
	for _, f := range rec.Files() {
		if reason := w.skipReason(f.Path); reason != "" {
			report.Skipped[f.Path] = reason
			w.publish(event.FileSkipped, f.Path, reason)
			w.log.Debug().Str("path", f.Path).Str("reason", reason).Msg("skipped")
			continue
		}

		target := filepath.Join(w.root, filepath.FromSlash(f.Path))
		if w.opts.DryRun {
			before, err := afero.ReadFile(w.fs, target)
			if err != nil && !os.IsNotExist(err) {
				return report, err
			}
			if text, added, deleted := Diff(f.Path, string(before), string(f.Content)); text != "" {
				fmt.Fprint(w.opts.Diffs, text)
				w.log.Debug().Str("path", f.Path).Int("added", added).Int("deleted", deleted).Msg("diff")
			}
			report.Written = append(report.Written, f.Path)
			continue
		}

		if err := w.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return report, fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := afero.WriteFile(w.fs, target, f.Content, 0644); err != nil {
			return report, fmt.Errorf("write %s: %w", f.Path, err)
		}
		report.Written = append(report.Written, f.Path)
		w.publish(event.FileWritten, f.Path, "")
		w.log.Info().Str("path", f.Path).Msg("written")
	}
	return report, nil
}

func (w *Writer) skipReason(rel string) string {
	for _, p := range w.opts.Skip {
		if ok, _ := doublestar.Match(p, rel); ok {
			return ReasonPattern
		}
		if ok, _ := doublestar.Match(p, path.Base(rel)); ok {
			return ReasonPattern
		}
	}
	if w.opts.Overwrite {
		return ""
	}
	exists, err := afero.Exists(w.fs, filepath.Join(w.root, filepath.FromSlash(rel)))
	if err == nil && exists {
		return ReasonExists
	}
	return ""
}

func (w *Writer) publish(t event.EventType, p, reason string) {
	if err := w.opts.Bus.Publish(t, event.FileData{Path: p, Reason: reason}); err != nil {
		w.log.Warn().Err(err).Msg("publish file event")
	}
}
