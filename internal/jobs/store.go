package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/statex"
)

// API is the jobs part of the job board API.
type API interface {
	ListJobs(ctx context.Context) ([]boardsdk.Job, error)
	GetJob(ctx context.Context, id string) (*boardsdk.Job, error)
	CreateJob(ctx context.Context, in boardsdk.JobInput) (*boardsdk.Job, error)
	UpdateJob(ctx context.Context, id string, in boardsdk.JobInput) (*boardsdk.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

// ErrSuperseded is returned by fetches whose result arrived after a newer
// operation started. Nothing was applied.
var ErrSuperseded = errors.New("jobs: superseded by a newer operation")

// Error is a rejected job operation.
type Error struct {
	Op      Op
	Message string
	Err     error
}

func (e *Error) Error() string { return string(e.Op) + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Store holds the job list.
type Store struct {
	api    API
	state  *statex.Store[State]
	logger *slog.Logger
}

// NewStore returns an empty job store. Call Close when done.
func NewStore(api API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		state:  statex.New(State{List: []boardsdk.Job{}}, reduce, statex.WithLogger(logger)),
		logger: logger,
	}
}

func (s *Store) Close() { s.state.Close() }

// State returns a snapshot.
func (s *Store) State() State { return s.state.State().clone() }

// Subscribe delivers a snapshot after every change.
func (s *Store) Subscribe() (<-chan State, func()) { return s.state.Subscribe() }

func (s *Store) begin(op Op) uint64 {
	return s.state.Dispatch(pendingAction{op: op}).seq
}

func (s *Store) reject(op Op, ticket uint64, err error) error {
	msg := boardsdk.ErrorMessage(err, op.defaultMessage())
	s.logger.Debug("job operation rejected", "op", op, "error", err)

	if s.state.Dispatch(rejectedAction{op: op, ticket: ticket, message: msg}).seq != ticket {
		return ErrSuperseded
	}
	return &Error{Op: op, Message: msg, Err: err}
}

// FetchAll replaces the list with the server's.
func (s *Store) FetchAll(ctx context.Context) ([]boardsdk.Job, error) {
	ticket := s.begin(OpFetchAll)

	list, err := s.api.ListJobs(ctx)
	if err != nil {
		return nil, s.reject(OpFetchAll, ticket, err)
	}

	if s.state.Dispatch(listFetched{ticket: ticket, jobs: list}).seq != ticket {
		return nil, ErrSuperseded
	}
	return append([]boardsdk.Job(nil), list...), nil
}

// Fetch loads one job as the current job.
func (s *Store) Fetch(ctx context.Context, id string) (*boardsdk.Job, error) {
	ticket := s.begin(OpFetch)

	job, err := s.api.GetJob(ctx, id)
	if err != nil {
		return nil, s.reject(OpFetch, ticket, err)
	}

	if s.state.Dispatch(jobFetched{ticket: ticket, job: *job}).seq != ticket {
		return nil, ErrSuperseded
	}
	return job, nil
}

// Add creates a job and puts it at the head of the list.
func (s *Store) Add(ctx context.Context, in boardsdk.JobInput) (*boardsdk.Job, error) {
	ticket := s.begin(OpAdd)

	job, err := s.api.CreateJob(ctx, in)
	if err != nil {
		return nil, s.reject(OpAdd, ticket, err)
	}

	s.state.Dispatch(jobAdded{ticket: ticket, job: *job})
	return job, nil
}

// Edit updates a job in place and makes it the current job.
func (s *Store) Edit(ctx context.Context, id string, in boardsdk.JobInput) (*boardsdk.Job, error) {
	ticket := s.begin(OpEdit)

	job, err := s.api.UpdateJob(ctx, id, in)
	if err != nil {
		return nil, s.reject(OpEdit, ticket, err)
	}

	s.state.Dispatch(jobEdited{ticket: ticket, job: *job})
	return job, nil
}

// Remove deletes a job and drops it from the list and the current job.
func (s *Store) Remove(ctx context.Context, id string) error {
	ticket := s.begin(OpRemove)

	if err := s.api.DeleteJob(ctx, id); err != nil {
		return s.reject(OpRemove, ticket, err)
	}

	s.state.Dispatch(jobRemoved{ticket: ticket, id: id})
	return nil
}

func (s *Store) ClearError()   { s.state.Dispatch(clearError{}) }
func (s *Store) ClearSuccess() { s.state.Dispatch(clearSuccess{}) }
func (s *Store) ClearCurrent() { s.state.Dispatch(clearCurrent{}) }
