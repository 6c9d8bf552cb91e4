package flows

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/strength"
)

const MsgPasswordMismatch = "Passwords do not match"

// RegisterForm is the sign-up screen's input. Email is optional.
type RegisterForm struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Strength scores the password against the form's personal fields.
func (f RegisterForm) Strength() strength.Result {
	return strength.Evaluate(f.Password, strength.Identity{
		Username: f.Username,
		Email:    f.Email,
		Name:     f.Name,
	})
}

// Validate checks required fields, the confirmation, the minimum length and
// finally the strength score.
func (f RegisterForm) Validate() error {
	if f.Name == "" || f.Username == "" || f.Password == "" || f.ConfirmPassword == "" {
		return invalid(MsgRequiredFields)
	}
	if f.Password != f.ConfirmPassword {
		return invalid(MsgPasswordMismatch)
	}
	if utf8.RuneCountInString(f.Password) < strength.MinLength {
		return invalid(strength.MsgTooShort)
	}
	if res := f.Strength(); !res.Acceptable {
		return &ValidationError{Message: res.Warning, Fields: map[string]string{"password": res.Label()}}
	}
	return nil
}

// Request is the API body. An empty email is left out.
func (f RegisterForm) Request() boardsdk.RegisterRequest {
	return boardsdk.RegisterRequest{
		Name:     f.Name,
		Username: f.Username,
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

// Register validates the form and creates the account. The user is not
// signed in; success navigates to the login screen.
func Register(ctx context.Context, sess Session, form RegisterForm) (*Navigation, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if _, err := sess.Register(ctx, form.Request()); err != nil {
		return nil, err
	}
	return &Navigation{To: LoginPath}, nil
}
