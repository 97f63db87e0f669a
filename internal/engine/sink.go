package engine

import (
	"sync"

	"github.com/codewithboateng/jinspect/internal/ir"
)

type sinkKey struct {
	unit, node, rule string
}

// Sink collects issues in report order, at most one per (unit, node, rule).
// It is safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	seen   map[sinkKey]struct{}
	issues []ir.Issue
}

func NewSink() *Sink {
	return &Sink{seen: make(map[sinkKey]struct{})}
}

// Report appends is unless the same node already has an issue for the same
// rule. It returns false for dropped duplicates.
func (s *Sink) Report(is ir.Issue) bool {
	k := sinkKey{is.Unit, is.Node, is.RuleID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[sinkKey]struct{})
	}
	if _, dup := s.seen[k]; dup {
		return false
	}
	s.seen[k] = struct{}{}
	s.issues = append(s.issues, is)
	return true
}

// Drain hands over the collected issues and resets the sink.
func (s *Sink) Drain() []ir.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.issues
	s.issues = nil
	s.seen = make(map[sinkKey]struct{})
	return out
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issues)
}
