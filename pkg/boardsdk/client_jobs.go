package boardsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func jobPath(id string) string {
	return "/jobs/" + url.PathEscape(id)
}

// ListJobs returns every job visible to the current user.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var env jobsEnvelope
	if err := c.call(ctx, http.MethodGet, "/jobs", nil, &env); err != nil {
		return nil, err
	}

	for i := range env.Jobs {
		if err := env.Jobs[i].Validate(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
	}

	if env.Jobs == nil {
		env.Jobs = []Job{}
	}
	return env.Jobs, nil
}

// GetJob returns a single job.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	return c.jobCall(ctx, http.MethodGet, jobPath(id), nil)
}

// CreateJob creates a job owned by the current user.
func (c *Client) CreateJob(ctx context.Context, in JobInput) (*Job, error) {
	return c.jobCall(ctx, http.MethodPost, "/jobs", in)
}

// UpdateJob replaces the editable fields of a job.
func (c *Client) UpdateJob(ctx context.Context, id string, in JobInput) (*Job, error) {
	return c.jobCall(ctx, http.MethodPut, jobPath(id), in)
}

// DeleteJob removes a job.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, jobPath(id), nil, nil)
}

func (c *Client) jobCall(ctx context.Context, method, path string, payload any) (*Job, error) {
	var env jobEnvelope
	if err := c.call(ctx, method, path, payload, &env); err != nil {
		return nil, err
	}

	if err := env.Job.Validate(); err != nil {
		return nil, err
	}
	return env.Job, nil
}
