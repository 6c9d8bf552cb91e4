package session

import "github.com/aussiebroadwan/jobboard/pkg/boardsdk"

// Op names an asynchronous operation.
type Op string

const (
	OpLogin          Op = "login"
	OpVerifyMFA      Op = "verifyMfa"
	OpRegister       Op = "register"
	OpLogout         Op = "logout"
	OpGetCurrentUser Op = "getCurrentUser"
)

// Default messages for rejected operations when the server gives none.
const (
	MsgLoginFailed       = "Login failed"
	MsgRegisterFailed    = "Registration failed"
	MsgVerifyMFAFailed   = "MFA verification failed"
	MsgLogoutFailed      = "Logout failed"
	MsgCurrentUserFailed = "Failed to get user info"
)

func (op Op) defaultMessage() string {
	switch op {
	case OpLogin:
		return MsgLoginFailed
	case OpRegister:
		return MsgRegisterFailed
	case OpVerifyMFA:
		return MsgVerifyMFAFailed
	case OpLogout:
		return MsgLogoutFailed
	default:
		return MsgCurrentUserFailed
	}
}

type pendingAction struct{ op Op }

func (a pendingAction) Type() string { return "auth/" + string(a.op) + "/pending" }

type rejectedAction struct {
	op          Op
	ticket      uint64
	message     string
	rateLimited bool
}

func (a rejectedAction) Type() string { return "auth/" + string(a.op) + "/rejected" }

type loginFulfilled struct {
	ticket uint64
	result boardsdk.LoginResult
}

func (loginFulfilled) Type() string { return "auth/login/fulfilled" }

type verifyMFAFulfilled struct {
	ticket uint64
	user   *boardsdk.UserProfile
}

func (verifyMFAFulfilled) Type() string { return "auth/verifyMfa/fulfilled" }

type registerFulfilled struct{ ticket uint64 }

func (registerFulfilled) Type() string { return "auth/register/fulfilled" }

type logoutSettled struct{ ticket uint64 }

func (logoutSettled) Type() string { return "auth/logout/settled" }

type currentUserFulfilled struct {
	ticket uint64
	user   *boardsdk.UserProfile
}

func (currentUserFulfilled) Type() string { return "auth/getCurrentUser/fulfilled" }

type oauthLoginSuccess struct{ user *boardsdk.UserProfile }

func (oauthLoginSuccess) Type() string { return "auth/oauthLoginSuccess" }

type clearError struct{}

func (clearError) Type() string { return "auth/clearError" }

type updateUserProfile struct{ user *boardsdk.UserProfile }

func (updateUserProfile) Type() string { return "auth/updateUserProfile" }

type resetMFAState struct{}

func (resetMFAState) Type() string { return "auth/resetMfaState" }
