// Package auditlog provides the file-based audit and violation sinks:
// append-only line-oriented logs with size rotation, a bounded retention
// count, and flock-protected appends so concurrent checks never interleave
// partial lines.
package auditlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// File names inside the log directory. Bypass events and blocked events go
// to separate files.
const (
	auditFile     = "audit.log"
	violationFile = "violations.log"
	lockFile      = ".lock"
)

// Config holds configuration for the file store.
type Config struct {
	// Dir is the directory where log files are stored.
	Dir string
	// MaxFileSize is the rotation threshold in bytes for the active file.
	MaxFileSize int64
	// MaxRotated is the number of rotated segments retained per file;
	// the oldest segment is discarded first.
	MaxRotated int
}

// FileStore implements rule.Sink over two rotating log files.
type FileStore struct {
	dir         string
	maxFileSize int64
	maxRotated  int
	logger      *slog.Logger
}

// NewFileStore creates the store and its directory.
func NewFileStore(cfg Config, logger *slog.Logger) (*FileStore, error) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 512 * 1024
	}
	if cfg.MaxRotated <= 0 {
		cfg.MaxRotated = 5
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &FileStore{
		dir:         cfg.Dir,
		maxFileSize: cfg.MaxFileSize,
		maxRotated:  cfg.MaxRotated,
		logger:      logger,
	}, nil
}

// Append writes one fully-formed line to the sink for the entry's kind.
// The whole append (rotation check included) runs under an exclusive file
// lock, so appends from concurrent checks or concurrent cmdsafe processes
// never interleave.
func (s *FileStore) Append(e rule.Entry) error {
	name := violationFile
	if e.Kind == rule.KindAudit {
		name = auditFile
	}

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("acquire log lock: %w", err)
	}
	defer unlock()

	path := filepath.Join(s.dir, name)
	if err := s.rotateIfNeeded(path); err != nil {
		return fmt.Errorf("rotate %s: %w", name, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(FormatLine(e)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// FormatLine renders an entry in the persisted one-line format:
//
//	[timestamp] kind=<audit|violation> rule=<id|flag> command=<line> cwd=<path>
func FormatLine(e rule.Entry) string {
	return fmt.Sprintf("[%s] kind=%s rule=%s command=%s cwd=%s\n",
		e.Timestamp.UTC().Format(time.RFC3339), e.Kind, e.Ref, e.CommandLine, e.Dir)
}

// rotateIfNeeded shifts the suffix chain when the active file exceeds the
// size threshold: active -> .1, .1 -> .2, ..., .MaxRotated is discarded.
func (s *FileStore) rotateIfNeeded(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() < s.maxFileSize {
		return nil //nolint:nilerr // missing active file means nothing to rotate
	}

	oldest := fmt.Sprintf("%s.%d", path, s.maxRotated)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard oldest segment: %w", err)
	}

	for i := s.maxRotated - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", path, i)
		to := fmt.Sprintf("%s.%d", path, i+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift segment %d: %w", i, err)
		}
	}

	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate active file: %w", err)
	}

	s.logger.Debug("rotated log file", "file", filepath.Base(path))
	return nil
}

// lock takes an exclusive flock on the directory's lock file and returns
// the release function.
func (s *FileStore) lock() (func(), error) {
	f, err := os.OpenFile(filepath.Join(s.dir, lockFile), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	if err := flockLock(f.Fd()); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		_ = flockUnlock(f.Fd())
		_ = f.Close()
	}, nil
}

// Compile-time interface verification.
var _ rule.Sink = (*FileStore)(nil)
