package fakeapi

import (
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/aussiebroadwan/jobboard/pkg/idx"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := slices.Clone(s.jobs)
	s.mu.Unlock()

	if list == nil {
		list = []boardsdk.Job{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

func (s *Server) findJobLocked(id string) int {
	return slices.IndexFunc(s.jobs, func(j boardsdk.Job) bool { return j.ID == id })
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.findJobLocked(r.PathValue("id"))
	var job boardsdk.Job
	if i >= 0 {
		job = s.jobs[i]
	}
	s.mu.Unlock()

	if i < 0 {
		httpx.WriteError(w, http.StatusNotFound, "Job not found", "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"job": job})
}

func decodeJobInput(w http.ResponseWriter, r *http.Request) (boardsdk.JobInput, bool) {
	var in boardsdk.JobInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "")
		return in, false
	}
	if strings.TrimSpace(in.Title) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Title is required", "")
		return in, false
	}
	if in.EmploymentType == "" {
		in.EmploymentType = boardsdk.FullTime
	}
	if !in.EmploymentType.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid employment type", "")
		return in, false
	}
	return in, true
}

func applyInput(j *boardsdk.Job, in boardsdk.JobInput) {
	j.Title = in.Title
	j.Location = in.Location
	j.Description = in.Description
	j.Salary = in.Salary
	j.EmploymentType = in.EmploymentType
	j.IsActive = in.IsActive
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJobInput(w, r)
	if !ok {
		return
	}

	now := s.now()

	s.mu.Lock()
	owner := s.accounts[userIDFrom(r.Context())].profile
	job := boardsdk.Job{
		ID:        idx.NewAt(now).String(),
		CreatedBy: boardsdk.UserRef{ID: owner.ID, Username: owner.Username},
		CreatedAt: now.UTC(),
	}
	applyInput(&job, in)
	s.jobs = append([]boardsdk.Job{job}, s.jobs...)
	s.mu.Unlock()

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"job": job})
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJobInput(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findJobLocked(r.PathValue("id"))
	switch {
	case i < 0:
		httpx.WriteError(w, http.StatusNotFound, "Job not found", "")
	case s.jobs[i].CreatedBy.ID != userIDFrom(r.Context()):
		httpx.WriteError(w, http.StatusForbidden, "Not authorized to update this job", "")
	default:
		applyInput(&s.jobs[i], in)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"job": s.jobs[i]})
	}
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findJobLocked(r.PathValue("id"))
	switch {
	case i < 0:
		httpx.WriteError(w, http.StatusNotFound, "Job not found", "")
	case s.jobs[i].CreatedBy.ID != userIDFrom(r.Context()):
		httpx.WriteError(w, http.StatusForbidden, "Not authorized to delete this job", "")
	default:
		s.jobs = slices.Delete(s.jobs, i, i+1)
		writeMessage(w, http.StatusOK, "Job deleted successfully")
	}
}
