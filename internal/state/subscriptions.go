package state

import "github.com/hammamikhairi/recipebox/internal/domain"

func reduceSubscriptions(s SubscriptionsState, ev Event) SubscriptionsState {
	switch ev.Op {
	case OpSubscriptionsClearError:
		s.Error = ""
		return s
	case OpLogout:
		if ev.Phase != PhasePending {
			return SubscriptionsState{TotalPages: 1, CurrentPage: 1}
		}
		return s
	}
	if ev.Op.Slice() != SliceSubscriptions {
		return s
	}

	switch ev.Phase {
	case PhasePending:
		begin(&s.Loading, &s.Error)
		return s
	case PhaseRejected:
		fail(&s.Loading, &s.Error, ev.Err)
		return s
	}
	s.Loading = false

	switch p := ev.Payload.(type) {
	case SubscriptionsLoaded:
		s.Items = p.Page.Results
		s.Count = p.Page.Count
		s.TotalPages = domain.PagesOf(p.Page.Count, p.Limit)
		s.CurrentPage = max(p.Requested, 1)
	case domain.Subscription:
		var added bool
		s.Items, added = upsertBy(s.Items, p, subscriptionID)
		if added {
			s.Count++
		}
	case int:
		var found bool
		s.Items, found = removeBy(s.Items, p, subscriptionID)
		if found && s.Count > 0 {
			s.Count--
		}
	}
	return s
}
