package jobs

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

const (
	MsgTitleRequired = "Job title is required"
	MsgSalaryNumber  = "Salary must be a number"
	MsgEmployment    = "Employment type must be full-time, part-time or contract"
)

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid job: " + strings.Join(parts, "; ")
}

// Form is the job editor's raw input.
type Form struct {
	Title          string
	Location       string
	Description    string
	Salary         string
	EmploymentType string
	IsActive       bool
}

// NewForm returns an empty form with the defaults of a new posting.
func NewForm() Form {
	return Form{EmploymentType: string(boardsdk.FullTime), IsActive: true}
}

// FormFromJob fills a form for editing job.
func FormFromJob(job boardsdk.Job) Form {
	f := Form{
		Title:          job.Title,
		Location:       job.Location,
		Description:    job.Description,
		EmploymentType: string(job.EmploymentType),
		IsActive:       job.IsActive,
	}
	if job.Salary != nil {
		f.Salary = strconv.FormatFloat(*job.Salary, 'f', -1, 64)
	}
	return f
}

// Validate returns the field errors, or nil.
func (f Form) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Title) == "" {
		errs["title"] = MsgTitleRequired
	}
	if s := strings.TrimSpace(f.Salary); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err != nil || math.IsNaN(v) {
			errs["salary"] = MsgSalaryNumber
		}
	}
	if f.EmploymentType != "" && !boardsdk.EmploymentType(f.EmploymentType).Valid() {
		errs["employmentType"] = MsgEmployment
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Input validates the form and converts it to a request body. An empty
// salary is omitted and an empty employment type becomes full-time.
func (f Form) Input() (boardsdk.JobInput, error) {
	if errs := f.Validate(); errs != nil {
		return boardsdk.JobInput{}, errs
	}

	in := boardsdk.JobInput{
		Title:          strings.TrimSpace(f.Title),
		Location:       strings.TrimSpace(f.Location),
		Description:    f.Description,
		EmploymentType: boardsdk.EmploymentType(f.EmploymentType),
		IsActive:       f.IsActive,
	}
	if in.EmploymentType == "" {
		in.EmploymentType = boardsdk.FullTime
	}
	if s := strings.TrimSpace(f.Salary); s != "" {
		v, _ := strconv.ParseFloat(s, 64)
		in.Salary = &v
	}
	return in, nil
}
