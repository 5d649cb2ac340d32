package flagkit

import "golang.org/x/exp/slices"

// pathStack is the per-evaluation path vector used to detect
// prerequisite cycles (spec §4.4, §9: "pass an explicit path vector
// through the recursive evaluator; do not rely on exceptions for
// control flow"). It is always stack-local to one feature/experiment
// evaluation and never shared across goroutines.
type pathStack struct {
	path []string
}

func (s *pathStack) push(id string) {
	s.path = append(s.path, id)
}

func (s *pathStack) pop() {
	if len(s.path) > 0 {
		s.path = s.path[:len(s.path)-1]
	}
}

func (s *pathStack) has(id string) bool {
	return slices.Contains(s.path, id)
}
