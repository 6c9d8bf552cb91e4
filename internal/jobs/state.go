// Package jobs keeps the client's view of job postings: the list, the job
// being viewed or edited, and the status of the last operation.
package jobs

import "github.com/aussiebroadwan/jobboard/pkg/boardsdk"

// State is a snapshot of the job store.
type State struct {
	List    []boardsdk.Job
	Current *boardsdk.Job
	Loading bool
	Error   string

	// Success is set by a completed create, update or delete until cleared.
	Success bool

	seq uint64
}

func (s State) clone() State {
	s.List = append([]boardsdk.Job(nil), s.List...)
	if s.Current != nil {
		cur := *s.Current
		s.Current = &cur
	}
	return s
}

// Find returns the listed job with id.
func (s State) Find(id string) (boardsdk.Job, bool) {
	for _, j := range s.List {
		if j.ID == id {
			return j, true
		}
	}
	return boardsdk.Job{}, false
}
