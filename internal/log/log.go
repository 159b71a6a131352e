// Package log keeps a JSON journal of the filesystem changes made by a run
// so they can be audited and undone.
package log

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

type OperationType string

const (
	OpMove      OperationType = "move"
	OpLink      OperationType = "link"
	OpSymlink   OperationType = "symlink"
	OpCreateDir OperationType = "create_dir"
)

type Operation struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Type       OperationType `json:"type"`
	SourcePath string        `json:"source_path,omitempty"`
	DestPath   string        `json:"dest_path,omitempty"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

type SessionMetadata struct {
	CommandArgs   []string  `json:"command_args"`
	WorkingDir    string    `json:"working_dir"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	TotalOps      int       `json:"total_operations"`
	SuccessfulOps int       `json:"successful_operations"`
	FailedOps     int       `json:"failed_operations"`
}

type Session struct {
	Metadata   SessionMetadata `json:"metadata"`
	Operations []Operation     `json:"operations"`
}

// Journal records operations for one run. It is safe for concurrent use.
// A nil *Journal records nothing.
type Journal struct {
	mu      sync.Mutex
	dir     string
	session *Session
}

// Dir returns the default journal folder under home.
func Dir(home string) string {
	return filepath.Join(home, "logs")
}

// Start opens a journal that Close writes into dir.
func Start(dir string, args []string) (*Journal, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	now := time.Now()
	return &Journal{
		dir: dir,
		session: &Session{
			Metadata: SessionMetadata{
				CommandArgs: slices.Clone(args),
				WorkingDir:  wd,
				Timestamp:   now,
				SessionID:   fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1e6),
			},
			Operations: []Operation{},
		},
	}, nil
}

// Record appends an operation. A nil err marks it successful.
func (j *Journal) Record(op OperationType, source, dest string, err error) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := Operation{
		ID:         fmt.Sprintf("%s_%d", j.session.Metadata.SessionID, len(j.session.Operations)),
		Timestamp:  time.Now(),
		Type:       op,
		SourcePath: source,
		DestPath:   dest,
		Success:    err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	j.session.Operations = append(j.session.Operations, entry)
}

// Session returns a copy of the recorded session with up to date totals.
func (j *Journal) Session() Session {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := *j.session
	s.Operations = slices.Clone(j.session.Operations)
	s.Metadata.TotalOps, s.Metadata.SuccessfulOps, s.Metadata.FailedOps = 0, 0, 0
	for _, op := range s.Operations {
		s.Metadata.TotalOps++
		if op.Success {
			s.Metadata.SuccessfulOps++
		} else {
			s.Metadata.FailedOps++
		}
	}
	return s
}

// Close writes the session and returns its path. Sessions without
// operations are not written and yield "".
func (j *Journal) Close() (string, error) {
	if j == nil {
		return "", nil
	}
	s := j.Session()
	if len(s.Operations) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(j.dir, s.Metadata.Timestamp.Format("2006-01-02_150405")+
		fmt.Sprintf(".%03d.json", s.Metadata.Timestamp.Nanosecond()/1e6))

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write log file: %w", err)
	}
	return path, nil
}

func ReadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Files lists the session files in dir, newest first.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	// names start with the timestamp
	slices.Sort(files)
	slices.Reverse(files)
	return files, nil
}

// Latest returns the newest session in dir.
func Latest(dir string) (*Session, string, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no sessions found in %s", dir)
	}
	s, err := ReadSession(files[0])
	if err != nil {
		return nil, "", err
	}
	return s, files[0], nil
}

// Cleanup removes session files older than retentionDays. A missing
// directory is not an error.
func Cleanup(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	files, err := Files(dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var errs []error
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
