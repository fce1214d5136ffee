package runner

import (
	"context"
	"fmt"
	"path"
)

// Case is one named entry of a Suite.
type Case struct {
	Name string
	Proc Procedure
}

// Suite is an ordered mapping from test name to procedure.
//
// Iteration follows insertion order. Adding a name that already exists
// replaces its procedure but keeps its original position.
type Suite struct {
	cases []Case
	index map[string]int
}

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{index: make(map[string]int)}
}

// Add registers proc under name and returns the suite for chaining.
func (s *Suite) Add(name string, proc Procedure) *Suite {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.cases[i].Proc = proc
		return s
	}
	s.index[name] = len(s.cases)
	s.cases = append(s.cases, Case{Name: name, Proc: proc})
	return s
}

// Test registers a synchronous test body.
func (s *Suite) Test(name string, fn func()) *Suite {
	return s.Add(name, Func(fn))
}

// AsyncTest registers a test body that returns a pending computation.
func (s *Suite) AsyncTest(name string, fn func(ctx context.Context) *Pending) *Suite {
	return s.Add(name, Async(fn))
}

// Len returns the number of tests.
func (s *Suite) Len() int {
	return len(s.cases)
}

// Names returns the test names in order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.cases))
	for i, c := range s.cases {
		names[i] = c.Name
	}
	return names
}

// Cases returns a copy of the entries in order.
func (s *Suite) Cases() []Case {
	cases := make([]Case, len(s.cases))
	copy(cases, s.cases)
	return cases
}

// Filter returns a new suite holding the tests whose name matches the glob
// pattern (path.Match syntax), in their original order.
// An empty pattern matches every test.
func (s *Suite) Filter(pattern string) (*Suite, error) {
	if pattern != "" {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	filtered := NewSuite()
	for _, c := range s.cases {
		if pattern != "" {
			if matched, _ := path.Match(pattern, c.Name); !matched {
				continue
			}
		}
		filtered.Add(c.Name, c.Proc)
	}
	return filtered, nil
}
