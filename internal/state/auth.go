package state

import "github.com/hammamikhairi/recipebox/internal/domain"

func reduceAuth(s AuthState, ev Event) AuthState {
	switch ev.Op {
	case OpLogin, OpRegister, OpCurrentUser, OpLogout:
	case OpAnonymous:
		return AuthState{Status: domain.SessionUnauthenticated}
	case OpAuthClearError:
		s.Error = ""
		return s
	default:
		return s
	}

	switch ev.Phase {
	case PhasePending:
		begin(&s.Loading, &s.Error)
		return s
	case PhaseRejected:
		fail(&s.Loading, &s.Error, ev.Err)
	default:
		s.Loading = false
	}

	switch ev.Op {
	case OpLogin:
		if ev.Phase == PhaseFulfilled {
			s.IsAuthenticated = true
			s.Status = domain.SessionAuthenticated
		}
	case OpCurrentUser:
		if ev.Phase == PhaseFulfilled {
			if u, ok := ev.Payload.(domain.UserProfile); ok {
				s.User = &u
			}
			s.IsAuthenticated = true
			s.Status = domain.SessionAuthenticated
			return s
		}
		s.User = nil
		s.IsAuthenticated = false
		s.Status = domain.SessionUnauthenticated
	case OpLogout:
		// The token is gone locally either way, so a failed server-side
		// logout still ends the session.
		s.User = nil
		s.IsAuthenticated = false
		s.Status = domain.SessionUnauthenticated
	}
	return s
}
