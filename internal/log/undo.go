package log

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Undo reverses one successful operation.
func Undo(op Operation) error {
	switch op.Type {
	case OpMove:
		if op.DestPath == "" {
			return fmt.Errorf("cannot undo move: destination path missing")
		}
		if _, err := os.Stat(op.DestPath); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot undo move: file %s not found", op.DestPath)
		}
		if _, err := os.Stat(op.SourcePath); err == nil {
			return fmt.Errorf("cannot undo move: original path %s already exists", op.SourcePath)
		}
		if err := os.MkdirAll(filepath.Dir(op.SourcePath), 0755); err != nil {
			return err
		}
		if err := os.Rename(op.DestPath, op.SourcePath); err != nil {
			return fmt.Errorf("failed to move %s back to %s: %w", op.DestPath, op.SourcePath, err)
		}
		return nil

	case OpLink, OpSymlink:
		if op.DestPath == "" {
			return fmt.Errorf("cannot undo link: destination path missing")
		}
		info, err := os.Lstat(op.DestPath)
		if errors.Is(err, fs.ErrNotExist) {
			// already gone
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(op.DestPath)
			if err == nil && target != op.SourcePath {
				return fmt.Errorf("link target mismatch: expected %s, got %s", op.SourcePath, target)
			}
		}
		if err := os.Remove(op.DestPath); err != nil {
			return fmt.Errorf("failed to remove link %s: %w", op.DestPath, err)
		}
		return nil

	case OpCreateDir:
		if op.DestPath == "" {
			return fmt.Errorf("cannot undo directory creation: path missing")
		}
		entries, err := os.ReadDir(op.DestPath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", op.DestPath, err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("cannot remove directory %s: not empty", op.DestPath)
		}
		return os.Remove(op.DestPath)
	}
	return fmt.Errorf("unknown operation type: %s", op.Type)
}

// UndoSession reverses the successful operations of s, newest first.
func UndoSession(s *Session) (successful, failed int, errs []error) {
	for i := len(s.Operations) - 1; i >= 0; i-- {
		op := s.Operations[i]
		if !op.Success {
			continue
		}
		if err := Undo(op); err != nil {
			failed++
			errs = append(errs, err)
			continue
		}
		successful++
	}
	return successful, failed, errs
}
