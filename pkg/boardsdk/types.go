package boardsdk

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Users
// ============================================================================

// UserProfile is the account as reported by the server.
type UserProfile struct {
	ID            string `json:"id" yaml:"id"`
	Username      string `json:"username" yaml:"username"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified" yaml:"emailVerified"`
	MFAEnabled    bool   `json:"mfaEnabled" yaml:"mfaEnabled"`

	// GoogleID and GithubID are set when the account is linked to that provider.
	GoogleID string `json:"googleId,omitempty" yaml:"googleId,omitempty"`
	GithubID string `json:"githubId,omitempty" yaml:"githubId,omitempty"`

	// Provider is the OAuth provider used for the current login, if any.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// UnmarshalJSON accepts both "id" and the document-store style "_id".
func (u *UserProfile) UnmarshalJSON(b []byte) error {
	type alias UserProfile
	var raw struct {
		alias
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*u = UserProfile(raw.alias)
	if u.ID == "" {
		u.ID = raw.DocID
	}
	return nil
}

// Validate reports whether the profile carries the fields every caller relies on.
func (u *UserProfile) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: user missing", ErrMalformedResponse)
	}
	if u.ID == "" {
		return fmt.Errorf("%w: user id missing", ErrMalformedResponse)
	}
	if u.Username == "" {
		return fmt.Errorf("%w: username missing", ErrMalformedResponse)
	}
	return nil
}

// Clone returns a copy of u, or nil when u is nil.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// LinkedProviders lists the OAuth providers linked to this account.
func (u *UserProfile) LinkedProviders() []Provider {
	var out []Provider
	if u.GoogleID != "" {
		out = append(out, ProviderGoogle)
	}
	if u.GithubID != "" {
		out = append(out, ProviderGitHub)
	}
	return out
}

// Provider names an OAuth identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// ============================================================================
// Auth requests and responses
// ============================================================================

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login. MFAToken is sent on the
// second leg of a multi-factor login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	MFAToken string `json:"mfaToken,omitempty"`
}

// LoginResult is a validated login response. Exactly one of User and
// RequiresMFA is set.
type LoginResult struct {
	User        *UserProfile
	RequiresMFA bool

	// UserID identifies the account awaiting its MFA code.
	UserID string
}

type loginResponse struct {
	User        *UserProfile `json:"user"`
	RequiresMFA bool         `json:"requiresMfa"`
	UserID      string       `json:"userId"`
}

type userEnvelope struct {
	User *UserProfile `json:"user"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// MFA
// ============================================================================

// MFASetup is the enrollment material returned by POST /auth/mfa/setup.
type MFASetup struct {
	Secret string `json:"secret"`

	// QRCode is usually a data URL holding a PNG.
	QRCode string `json:"qrCode"`

	OTPAuthURL string `json:"otpauthUrl,omitempty"`
}

// MFAVerifyResult carries the one-time backup codes issued when MFA is enabled.
type MFAVerifyResult struct {
	BackupCodes []string `json:"backupCodes"`
}

type mfaVerifyRequest struct {
	Token string `json:"token"`
}

// MFADisableRequest is the body of POST /auth/mfa/disable.
type MFADisableRequest struct {
	Password string `json:"password"`
	MFAToken string `json:"mfaToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ============================================================================
// Jobs
// ============================================================================

// EmploymentType is the kind of engagement a job offers.
type EmploymentType string

const (
	FullTime EmploymentType = "full-time"
	PartTime EmploymentType = "part-time"
	Contract EmploymentType = "contract"
)

// EmploymentTypes lists every accepted employment type.
var EmploymentTypes = []EmploymentType{FullTime, PartTime, Contract}

// Valid reports whether t is one of EmploymentTypes.
func (t EmploymentType) Valid() bool {
	switch t {
	case FullTime, PartTime, Contract:
		return true
	default:
		return false
	}
}

// UserRef references the user owning a job. The server may send either a
// bare id or a populated user object.
type UserRef struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// UnmarshalJSON accepts a string id, an object with id/_id, or null.
func (r *UserRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = UserRef{}
		return nil
	}

	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*r = UserRef{ID: id}
		return nil
	}

	var obj struct {
		ID       string `json:"id"`
		DocID    string `json:"_id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}

	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.DocID
	}
	r.Username = obj.Username
	return nil
}

// Job is a job posting.
type Job struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Location       string         `json:"location,omitempty" yaml:"location,omitempty"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Salary         *float64       `json:"salary,omitempty" yaml:"salary,omitempty"`
	EmploymentType EmploymentType `json:"employmentType" yaml:"employmentType"`
	IsActive       bool           `json:"isActive" yaml:"isActive"`
	CreatedBy      UserRef        `json:"createdBy" yaml:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt" yaml:"createdAt"`
}

// UnmarshalJSON accepts "_id", defaults a missing employment type to
// full-time, and defaults a missing isActive to true.
func (j *Job) UnmarshalJSON(b []byte) error {
	type alias Job
	var raw struct {
		alias
		DocID    string `json:"_id"`
		IsActive *bool  `json:"isActive"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*j = Job(raw.alias)
	if j.ID == "" {
		j.ID = raw.DocID
	}
	if j.EmploymentType == "" {
		j.EmploymentType = FullTime
	}
	j.IsActive = raw.IsActive == nil || *raw.IsActive
	return nil
}

// Validate reports whether the job carries an id, a title and a known
// employment type.
func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: job missing", ErrMalformedResponse)
	}
	if j.ID == "" {
		return fmt.Errorf("%w: job id missing", ErrMalformedResponse)
	}
	if j.Title == "" {
		return fmt.Errorf("%w: job title missing", ErrMalformedResponse)
	}
	if !j.EmploymentType.Valid() {
		return fmt.Errorf("%w: unknown employment type %q", ErrMalformedResponse, j.EmploymentType)
	}
	return nil
}

// JobInput is the body of job create and update requests.
type JobInput struct {
	Title          string         `json:"title"`
	Location       string         `json:"location,omitempty"`
	Description    string         `json:"description,omitempty"`
	Salary         *float64       `json:"salary,omitempty"`
	EmploymentType EmploymentType `json:"employmentType"`
	IsActive       bool           `json:"isActive"`
}

type jobEnvelope struct {
	Job *Job `json:"job"`
}

type jobsEnvelope struct {
	Jobs []Job `json:"jobs"`
}
