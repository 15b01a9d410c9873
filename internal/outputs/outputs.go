// Package outputs owns the on-disk result layout:
//
//	outputs/<Category>_<YYYYMMDD>/<subtype>_<YYYYMMDD_HHMMSS>.<ext>
//	outputs/LLM_<YYYYMMDD_HHMMSS>/{text,audio}/...
//
// Directories are created on demand and never cleaned up or deduplicated.
package outputs

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/eltociear/NeuroSandboxWebUI/internal/common/fsutil"
)

const (
	dayFormat   = "20060102"
	stampFormat = "20060102_150405"
)

// Store resolves artifact paths under a single outputs root.
type Store struct {
	root string
	now  func() time.Time
}

// New builds a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// NewWithClock is for tests that need a fixed timestamp.
func NewWithClock(dir string, now func() time.Time) *Store {
	return &Store{root: dir, now: now}
}

// Root returns the outputs root directory.
func (s *Store) Root() string { return s.root }

// DayDir ensures and returns outputs/<Category>_<YYYYMMDD>.
func (s *Store) DayDir(category string) (string, error) {
	dir := filepath.Join(s.root, fmt.Sprintf("%s_%s", category, s.now().Format(dayFormat)))
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// FilePath returns a free <prefix>_<timestamp>.<ext> inside dir. Timestamp
// granularity is one second, so an in-use name gets a numeric suffix.
func (s *Store) FilePath(dir, prefix, ext string) string {
	name := fmt.Sprintf("%s_%s.%s", prefix, s.now().Format(stampFormat), ext)
	return fsutil.UniquePath(filepath.Join(dir, name))
}

// ArtifactPath combines DayDir and FilePath for the common one-file case.
func (s *Store) ArtifactPath(category, prefix, ext string) (string, error) {
	dir, err := s.DayDir(category)
	if err != nil {
		return "", err
	}
	return s.FilePath(dir, prefix, ext), nil
}

// NewChatDir creates outputs/LLM_<timestamp> with its text/ and audio/
// subdirectories and returns the chat directory.
func (s *Store) NewChatDir() (string, error) {
	dir := filepath.Join(s.root, fmt.Sprintf("LLM_%s", s.now().Format(stampFormat)))
	dir = fsutil.UniquePath(dir)
	for _, sub := range []string{"text", "audio"} {
		if err := fsutil.EnsureDir(filepath.Join(dir, sub)); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// OpenFolder opens the outputs root in the OS file browser. Best effort.
func (s *Store) OpenFolder() error {
	if !fsutil.PathExists(s.root) {
		return fmt.Errorf("outputs folder does not exist: %s", s.root)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", s.root)
	case "darwin":
		cmd = exec.Command("open", s.root)
	default:
		cmd = exec.Command("xdg-open", s.root)
	}
	return cmd.Start()
}
