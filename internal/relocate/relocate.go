// Package relocate carries files to the destinations computed by targets,
// either by moving them or by linking them into place.
package relocate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/log"
)

// ErrDestinationExists is returned when a move would overwrite a file.
var ErrDestinationExists = errors.New("destination already exists")

// Mover performs the filesystem side of a rename.
type Mover interface {
	MkdirAll(path string) error
	Move(from, to string) error
}

// Apply creates the parent of to and carries from there. It reports
// whether anything changed; from == to is a no-op.
func Apply(m Mover, from, to string) (bool, error) {
	if filepath.Clean(from) == filepath.Clean(to) {
		return false, nil
	}
	if err := m.MkdirAll(filepath.Dir(to)); err != nil {
		return false, err
	}
	if err := m.Move(from, to); err != nil {
		return false, err
	}
	return true, nil
}

// OSMover renames files in place.
type OSMover struct {
	Journal *log.Journal
	Logger  zerolog.Logger
}

// MkdirAll creates path and records each folder it had to make.
func (m *OSMover) MkdirAll(path string) error {
	return mkdirAll(path, m.Journal)
}

// Move renames from to to, refusing to replace an existing file.
func (m *OSMover) Move(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		err := fmt.Errorf("%s: %w", to, ErrDestinationExists)
		m.Journal.Record(log.OpMove, from, to, err)
		return err
	}
	err := os.Rename(from, to)
	m.Journal.Record(log.OpMove, from, to, err)
	if err != nil {
		return err
	}
	m.Logger.Debug().Str("from", from).Str("to", to).Msg("moved")
	return nil
}

// LinkMode selects how LinkMover links files.
type LinkMode int

const (
	// LinkAuto tries a hard link and falls back to a symbolic one, e.g.
	// across filesystems.
	LinkAuto LinkMode = iota
	LinkHard
	LinkSymbolic
)

// ParseLinkMode maps "auto", "hard" and "soft"/"symbolic" to a LinkMode.
func ParseLinkMode(s string) (LinkMode, error) {
	switch s {
	case "", "auto":
		return LinkAuto, nil
	case "hard":
		return LinkHard, nil
	case "soft", "symbolic", "sym":
		return LinkSymbolic, nil
	}
	return 0, fmt.Errorf("unknown link mode %q", s)
}

// LinkMover leaves sources untouched and links them at the destination.
// An existing destination counts as already linked.
type LinkMover struct {
	Mode    LinkMode
	Journal *log.Journal
	Logger  zerolog.Logger
}

func (m *LinkMover) MkdirAll(path string) error {
	return mkdirAll(path, m.Journal)
}

func (m *LinkMover) Move(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		m.Logger.Debug().Str("path", to).Msg("already linked")
		return nil
	}

	op, err := m.link(from, to)
	if errors.Is(err, fs.ErrExist) {
		// created between the check and the link
		return nil
	}
	m.Journal.Record(op, from, to, err)
	if err != nil {
		return fmt.Errorf("link %s: %w", to, err)
	}
	m.Logger.Debug().Str("from", from).Str("to", to).Str("type", string(op)).Msg("linked")
	return nil
}

func (m *LinkMover) link(from, to string) (log.OperationType, error) {
	switch m.Mode {
	case LinkHard:
		return log.OpLink, os.Link(from, to)
	case LinkSymbolic:
		return log.OpSymlink, symlink(from, to)
	}
	if err := os.Link(from, to); err == nil || errors.Is(err, fs.ErrExist) {
		return log.OpLink, err
	}
	return log.OpSymlink, symlink(from, to)
}

func symlink(from, to string) error {
	abs, err := filepath.Abs(from)
	if err != nil {
		return err
	}
	return os.Symlink(abs, to)
}

// mkdirAll creates path, recording the folders it made from the top down.
func mkdirAll(path string, journal *log.Journal) error {
	var missing []string
	for dir := path; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		missing = append(missing, dir)
		if dir == filepath.Dir(dir) {
			break
		}
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		journal.Record(log.OpCreateDir, "", path, err)
		return err
	}
	for i := len(missing) - 1; i >= 0; i-- {
		journal.Record(log.OpCreateDir, "", missing[i], nil)
	}
	return nil
}
