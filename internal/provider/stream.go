package provider

import (
	"iter"

	"github.com/Digital-Shane/namer/internal/metadata"
)

// Stream pulls results from a search one at a time. Nothing is fetched
// until Next is called, and only as many pages as needed are requested.
// A Stream must not be shared between goroutines.
//
//	s := provider.NewStream(p.Search(ctx, q))
//	defer s.Close()
//	for s.Next() {
//		use(s.Result())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	next   func() (metadata.Metadata, error, bool)
	stop   func()
	cur    metadata.Metadata
	err    error
	done   bool
	pulled int
}

// NewStream wraps a result sequence.
func NewStream(seq iter.Seq2[metadata.Metadata, error]) *Stream {
	next, stop := iter.Pull2(seq)
	return &Stream{next: next, stop: stop}
}

// Next advances to the next result. It returns false when the sequence is
// exhausted or failed; check Err afterwards.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	m, err, ok := s.next()
	if !ok {
		s.finish()
		return false
	}
	if err != nil {
		s.err = err
		s.finish()
		return false
	}
	s.cur = m
	s.pulled++
	return true
}

// Result returns the current result.
func (s *Stream) Result() metadata.Metadata {
	return s.cur
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Pulled returns the number of results consumed so far.
func (s *Stream) Pulled() int {
	return s.pulled
}

// Close releases the underlying sequence. It is safe to call more than once.
func (s *Stream) Close() {
	s.finish()
}

// Collect reads up to limit results (all of them when limit <= 0) and
// closes the stream. Results read before a failure are returned with the
// error.
func (s *Stream) Collect(limit int) ([]metadata.Metadata, error) {
	defer s.Close()
	var out []metadata.Metadata
	for (limit <= 0 || len(out) < limit) && s.Next() {
		out = append(out, s.Result())
	}
	return out, s.Err()
}

func (s *Stream) finish() {
	if s.done {
		return
	}
	s.done = true
	s.cur = nil
	s.stop()
}
