package log

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestJournalRecordAndClose(t *testing.T) {
	dir := t.TempDir()
	j, err := Start(dir, []string{"namer", "--batch", "movies"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	j.Record(OpCreateDir, "", "/movies/Alien (1979)", nil)
	j.Record(OpMove, "/in/alien.mkv", "/movies/Alien (1979)/Alien.mkv", nil)
	j.Record(OpMove, "/in/broken.mkv", "/movies/Broken.mkv", errors.New("destination already exists"))

	path, err := j.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Close() path = %q, want it inside %q", path, dir)
	}

	s, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if s.Metadata.TotalOps != 3 || s.Metadata.SuccessfulOps != 2 || s.Metadata.FailedOps != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1", s.Metadata.TotalOps, s.Metadata.SuccessfulOps, s.Metadata.FailedOps)
	}

	want := []Operation{
		{Type: OpCreateDir, DestPath: "/movies/Alien (1979)", Success: true},
		{Type: OpMove, SourcePath: "/in/alien.mkv", DestPath: "/movies/Alien (1979)/Alien.mkv", Success: true},
		{Type: OpMove, SourcePath: "/in/broken.mkv", DestPath: "/movies/Broken.mkv", Error: "destination already exists"},
	}
	opts := cmpopts.IgnoreFields(Operation{}, "ID", "Timestamp")
	if diff := cmp.Diff(want, s.Operations, opts); diff != "" {
		t.Errorf("Operations mismatch (-want +got):\n%s", diff)
	}
}

func TestJournalSkipsEmptySession(t *testing.T) {
	dir := t.TempDir()
	j, err := Start(dir, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	path, err := j.Close()
	if err != nil || path != "" {
		t.Errorf("Close() = %q, %v; want nothing written", path, err)
	}
	if files, _ := Files(dir); len(files) != 0 {
		t.Errorf("Files() = %v, want none", files)
	}
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	j.Record(OpMove, "a", "b", nil)
	if path, err := j.Close(); path != "" || err != nil {
		t.Errorf("Close() = %q, %v; want no-op", path, err)
	}
}

func TestJournalConcurrentRecord(t *testing.T) {
	j, err := Start(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.Record(OpLink, "src", "dst", nil)
		}()
	}
	wg.Wait()

	s := j.Session()
	if s.Metadata.TotalOps != 20 {
		t.Errorf("TotalOps = %d, want 20", s.Metadata.TotalOps)
	}
	seen := make(map[string]bool)
	for _, op := range s.Operations {
		if seen[op.ID] {
			t.Errorf("duplicate operation id %q", op.ID)
		}
		seen[op.ID] = true
	}
}

func TestLatestAndCleanup(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "2024-01-01_120000.000.json")
	newer := filepath.Join(dir, "2024-06-01_120000.000.json")
	for _, p := range []string{older, newer} {
		if err := os.WriteFile(p, []byte(`{"metadata":{"session_id":"`+filepath.Base(p)+`"},"operations":[]}`), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	s, path, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if path != newer || s.Metadata.SessionID != filepath.Base(newer) {
		t.Errorf("Latest() = %q, want %q", path, newer)
	}

	old := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(older, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := Cleanup(dir, 30); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	files, _ := Files(dir)
	if diff := cmp.Diff([]string{newer}, files); diff != "" {
		t.Errorf("Files() after Cleanup mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestWithoutSessions(t *testing.T) {
	if _, _, err := Latest(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Latest() error = nil, want error")
	}
}
