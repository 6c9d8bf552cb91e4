package boardsdk_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
)

func TestJobsCRUD(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := testContext(t)
	owner := h.signIn(t, "grace")

	list, err := h.client.ListJobs(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	salary := 120000.0
	created, err := h.client.CreateJob(ctx, boardsdk.JobInput{
		Title:          "Backend engineer",
		Location:       "Remote",
		Salary:         &salary,
		EmploymentType: boardsdk.FullTime,
		IsActive:       true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, owner.ID, created.CreatedBy.ID)
	require.InDelta(t, salary, *created.Salary, 0.001)

	got, err := h.client.GetJob(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Remote", got.Location)

	updated, err := h.client.UpdateJob(ctx, created.ID, boardsdk.JobInput{
		Title: "Staff backend engineer", EmploymentType: boardsdk.PartTime,
	})
	require.NoError(t, err)
	require.Equal(t, boardsdk.PartTime, updated.EmploymentType)
	require.False(t, updated.IsActive)

	list, err = h.client.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, h.client.DeleteJob(ctx, created.ID))

	_, err = h.client.GetJob(ctx, created.ID)
	require.True(t, boardsdk.IsStatus(err, http.StatusNotFound))
	require.Equal(t, "Job not found", boardsdk.ErrorMessage(err, ""))
}

func TestJobsOwnership(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := testContext(t)
	h.signIn(t, "heidi")

	job, err := h.client.CreateJob(ctx, boardsdk.JobInput{Title: "Mine", EmploymentType: boardsdk.Contract})
	require.NoError(t, err)

	other := boardsdk.NewClient(h.srv.URL)
	_, err = h.api.CreateUser("", "ivan", "", testPassword)
	require.NoError(t, err)
	_, err = other.Login(ctx, boardsdk.LoginRequest{Username: "ivan", Password: testPassword})
	require.NoError(t, err)

	err = other.DeleteJob(ctx, job.ID)
	require.True(t, boardsdk.IsStatus(err, http.StatusForbidden))
}
