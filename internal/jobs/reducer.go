package jobs

import (
	"slices"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/statex"
)

// Op names a job operation.
type Op string

const (
	OpFetchAll Op = "fetchAll"
	OpFetch    Op = "fetchOne"
	OpAdd      Op = "add"
	OpEdit     Op = "edit"
	OpRemove   Op = "remove"
)

const (
	MsgFetchAllFailed = "Failed to fetch jobs"
	MsgFetchFailed    = "Failed to fetch job"
	MsgAddFailed      = "Failed to add job"
	MsgEditFailed     = "Failed to update job"
	MsgRemoveFailed   = "Failed to delete job"
)

func (op Op) defaultMessage() string {
	switch op {
	case OpFetchAll:
		return MsgFetchAllFailed
	case OpFetch:
		return MsgFetchFailed
	case OpAdd:
		return MsgAddFailed
	case OpEdit:
		return MsgEditFailed
	default:
		return MsgRemoveFailed
	}
}

type pendingAction struct{ op Op }

func (a pendingAction) Type() string { return "jobs/" + string(a.op) + "/pending" }

type rejectedAction struct {
	op      Op
	ticket  uint64
	message string
}

func (a rejectedAction) Type() string { return "jobs/" + string(a.op) + "/rejected" }

type listFetched struct {
	ticket uint64
	jobs   []boardsdk.Job
}

func (listFetched) Type() string { return "jobs/fetchAll/fulfilled" }

type jobFetched struct {
	ticket uint64
	job    boardsdk.Job
}

func (jobFetched) Type() string { return "jobs/fetchOne/fulfilled" }

type jobAdded struct {
	ticket uint64
	job    boardsdk.Job
}

func (jobAdded) Type() string { return "jobs/add/fulfilled" }

type jobEdited struct {
	ticket uint64
	job    boardsdk.Job
}

func (jobEdited) Type() string { return "jobs/edit/fulfilled" }

type jobRemoved struct {
	ticket uint64
	id     string
}

func (jobRemoved) Type() string { return "jobs/remove/fulfilled" }

type clearError struct{}

func (clearError) Type() string { return "jobs/clearError" }

type clearSuccess struct{}

func (clearSuccess) Type() string { return "jobs/clearSuccess" }

type clearCurrent struct{}

func (clearCurrent) Type() string { return "jobs/clearCurrentJob" }

// reduce applies job actions. Completed mutations always reach the list
// because the server has changed; the loading, error and success fields
// only follow the newest operation.
func reduce(s State, action statex.Action) State {
	switch a := action.(type) {
	case pendingAction:
		s.seq++
		s.Loading = true
		s.Error = ""
		switch a.op {
		case OpFetch:
			s.Current = nil
		case OpAdd, OpEdit:
			s.Success = false
		}
		return s

	case rejectedAction:
		if a.ticket != s.seq {
			return s
		}
		s.Loading = false
		s.Error = a.message
		return s

	case listFetched:
		if a.ticket != s.seq {
			return s
		}
		s.List = a.jobs
		s.Loading = false
		return s

	case jobFetched:
		if a.ticket != s.seq {
			return s
		}
		job := a.job
		s.Current = &job
		s.Loading = false
		return s

	case jobAdded:
		s.List = append([]boardsdk.Job{a.job}, s.List...)
		return settled(s, a.ticket)

	case jobEdited:
		s.List = slices.Clone(s.List)
		if i := slices.IndexFunc(s.List, func(j boardsdk.Job) bool { return j.ID == a.job.ID }); i >= 0 {
			s.List[i] = a.job
		}
		if a.ticket == s.seq || (s.Current != nil && s.Current.ID == a.job.ID) {
			job := a.job
			s.Current = &job
		}
		return settled(s, a.ticket)

	case jobRemoved:
		s.List = slices.DeleteFunc(slices.Clone(s.List), func(j boardsdk.Job) bool { return j.ID == a.id })
		if s.Current != nil && s.Current.ID == a.id {
			s.Current = nil
		}
		return settled(s, a.ticket)

	case clearError:
		s.Error = ""
		return s

	case clearSuccess:
		s.Success = false
		return s

	case clearCurrent:
		s.Current = nil
		return s
	}

	return s
}

func settled(s State, ticket uint64) State {
	if ticket == s.seq {
		s.Loading = false
		s.Success = true
	}
	return s
}
