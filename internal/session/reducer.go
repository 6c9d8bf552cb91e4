package session

import (
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/statex"
)

// reduce is the only place a Session changes.
func reduce(s Session, action statex.Action) Session {
	switch a := action.(type) {
	case pendingAction:
		s.seq++
		s.Loading = true
		switch a.op {
		case OpLogin:
			s.Error = ""
			s.RateLimitExceeded = false
			s.MFARequired = false
			s.PendingMFAUserID = ""
		case OpVerifyMFA, OpRegister:
			s.Error = ""
			s.RateLimitExceeded = false
		case OpLogout:
			// Local state is dropped immediately, whatever the server says.
			s = signedOut(s)
			s.Loading = true
		case OpGetCurrentUser:
			s.Error = ""
		}
		return s

	case rejectedAction:
		if a.ticket != s.seq {
			return s
		}
		s.Loading = false
		switch a.op {
		case OpGetCurrentUser:
			// Rehydration failures are silent.
			s.User = nil
			s.IsAuthenticated = false
		case OpLogout:
			s = signedOut(s)
		default:
			s.Error = a.message
			s.RateLimitExceeded = a.rateLimited
		}
		return s

	case loginFulfilled:
		if a.ticket != s.seq {
			return s
		}
		s.Loading = false
		if a.result.RequiresMFA {
			s.User = nil
			s.IsAuthenticated = false
			s.MFARequired = true
			s.PendingMFAUserID = a.result.UserID
			return s
		}
		return signedIn(s, a.result.User)

	case verifyMFAFulfilled:
		if a.ticket != s.seq {
			return s
		}
		return signedIn(s, a.user)

	case registerFulfilled:
		if a.ticket != s.seq {
			return s
		}
		s.Loading = false
		return s

	case logoutSettled:
		if a.ticket != s.seq {
			return s
		}
		return signedOut(s)

	case currentUserFulfilled:
		if a.ticket != s.seq {
			return s
		}
		return signedIn(s, a.user)

	case oauthLoginSuccess:
		if a.user == nil {
			return s
		}
		// Supersedes anything still in flight.
		s.seq++
		s = signedIn(s, a.user)
		s.Error = ""
		s.RateLimitExceeded = false
		return s

	case clearError:
		s.Error = ""
		s.RateLimitExceeded = false
		return s

	case updateUserProfile:
		if !s.IsAuthenticated || a.user == nil {
			return s
		}
		s.User = a.user
		return s

	case resetMFAState:
		if !s.MFARequired {
			return s
		}
		s.seq++
		s.Loading = false
		s.MFARequired = false
		s.PendingMFAUserID = ""
		s.Error = ""
		s.RateLimitExceeded = false
		return s
	}

	return s
}

func signedIn(s Session, user *boardsdk.UserProfile) Session {
	s.User = user
	s.IsAuthenticated = true
	s.Loading = false
	s.MFARequired = false
	s.PendingMFAUserID = ""
	return s
}

func signedOut(s Session) Session {
	return Session{seq: s.seq}
}
