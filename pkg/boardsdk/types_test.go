package boardsdk_test

import (
	"encoding/json"
	"testing"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
)

func TestUserProfileDocumentID(t *testing.T) {
	t.Parallel()

	var u boardsdk.UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","username":"bob","mfaEnabled":true}`), &u))
	require.Equal(t, "abc", u.ID)
	require.True(t, u.MFAEnabled)
	require.NoError(t, u.Validate())

	require.ErrorIs(t, (&boardsdk.UserProfile{ID: "x"}).Validate(), boardsdk.ErrMalformedResponse)
	require.ErrorIs(t, (*boardsdk.UserProfile)(nil).Validate(), boardsdk.ErrMalformedResponse)
}

func TestJobDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantType   boardsdk.EmploymentType
		wantActive bool
		wantOwner  string
	}{
		{"defaults", `{"_id":"1","title":"T"}`, boardsdk.FullTime, true, ""},
		{"explicit inactive", `{"id":"1","title":"T","isActive":false,"employmentType":"contract"}`, boardsdk.Contract, false, ""},
		{"owner as id", `{"id":"1","title":"T","createdBy":"u1"}`, boardsdk.FullTime, true, "u1"},
		{"owner populated", `{"id":"1","title":"T","createdBy":{"_id":"u2","username":"amy"}}`, boardsdk.FullTime, true, "u2"},
		{"owner null", `{"id":"1","title":"T","createdBy":null}`, boardsdk.FullTime, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var j boardsdk.Job
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &j))
			require.Equal(t, tt.wantType, j.EmploymentType)
			require.Equal(t, tt.wantActive, j.IsActive)
			require.Equal(t, tt.wantOwner, j.CreatedBy.ID)
			require.NoError(t, j.Validate())
		})
	}

	var bad boardsdk.Job
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":"T","employmentType":"gig"}`), &bad))
	require.ErrorIs(t, bad.Validate(), boardsdk.ErrMalformedResponse)
}
