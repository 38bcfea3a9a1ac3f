package state

// Reduce applies one event to the whole tree. It is pure: no I/O, and the
// input state is never modified.
//
// Events of latest-wins operations that are older than the newest request
// of the same operation are dropped, so overlapping fetches cannot leave
// the tree showing an outdated response.
func Reduce(s State, ev Event) State {
	if isStale(s, ev) {
		return s
	}
	s.requests = track(s.requests, ev)

	s.Auth = reduceAuth(s.Auth, ev)
	s.Recipes = reduceRecipes(s.Recipes, ev)
	s.Favorites = reduceFavorites(s.Favorites, ev)
	s.ShoppingList = reduceShoppingList(s.ShoppingList, ev)
	s.Subscriptions = reduceSubscriptions(s.Subscriptions, ev)
	return s
}

// IsStale reports whether ev would be dropped by Reduce.
func IsStale(s State, ev Event) bool { return isStale(s, ev) }

func isStale(s State, ev Event) bool {
	if ev.Seq == 0 || !ev.Op.LatestWins() {
		return false
	}
	return ev.Seq < s.requests[ev.Op]
}

func track(requests map[Op]uint64, ev Event) map[Op]uint64 {
	if ev.Seq == 0 || !ev.Op.LatestWins() || ev.Phase != PhasePending {
		return requests
	}
	if requests[ev.Op] >= ev.Seq {
		return requests
	}
	out := make(map[Op]uint64, len(requests)+1)
	for k, v := range requests {
		out[k] = v
	}
	out[ev.Op] = ev.Seq
	return out
}

// begin and fail are the pending/rejected rows shared by every slice.
func begin(loading *bool, errText *string) {
	*loading = true
	*errText = ""
}

func fail(loading *bool, errText *string, msg string) {
	*loading = false
	*errText = msg
}
