package state

import "github.com/hammamikhairi/recipebox/internal/domain"

func reduceFavorites(s FavoritesState, ev Event) FavoritesState {
	switch ev.Op {
	case OpGetFavorites, OpAddToFavorites, OpRemoveFromFavorites:
	case OpFavoritesClearError:
		s.Error = ""
		return s
	case OpLogout:
		if ev.Phase != PhasePending {
			return FavoritesState{}
		}
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
		return s
	}
	s.Loading = false

	switch p := ev.Payload.(type) {
	case []domain.Recipe:
		s.Items = p
	case domain.Recipe:
		s.Items, _ = upsertBy(s.Items, p, recipeID)
	case int:
		s.Items, _ = removeBy(s.Items, p, recipeID)
	}
	return s
}
