package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docstage/internal/logfields"
)

// FileSink writes artifacts below a base directory. Files whose fingerprint
// already matches the new content are left untouched so downstream watchers
// only see real changes.
type FileSink struct {
	baseDir   string
	written   atomic.Int64
	unchanged atomic.Int64
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates a FileSink rooted at baseDir.
func NewFileSink(baseDir string) *FileSink {
	return &FileSink{baseDir: baseDir}
}

// Emit writes a to disk.
func (s *FileSink) Emit(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	target := filepath.Join(s.baseDir, filepath.FromSlash(a.FileName))

	// #nosec G304 -- target is confined to baseDir by Validate
	if existing, err := os.ReadFile(target); err == nil {
		if Fingerprint(string(existing)) == Fingerprint(a.Content) {
			s.unchanged.Add(1)
			slog.Debug("Artifact unchanged", logfields.Artifact(a.FileName))
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	// #nosec G306 -- documentation is public content
	if err := os.WriteFile(target, []byte(a.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", target, err)
	}
	s.written.Add(1)
	slog.Debug("Artifact written", logfields.Artifact(a.FileName), logfields.Path(target))
	return nil
}

// Written returns how many files were created or rewritten.
func (s *FileSink) Written() int { return int(s.written.Load()) }

// Unchanged returns how many emissions matched the file already on disk.
func (s *FileSink) Unchanged() int { return int(s.unchanged.Load()) }

// Fingerprint returns the canonical content fingerprint of an artifact body.
func Fingerprint(content string) string {
	return mdfp.CalculateFingerprintFromParts("", content)
}
