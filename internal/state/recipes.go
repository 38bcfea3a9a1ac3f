package state

import "github.com/hammamikhairi/recipebox/internal/domain"

func reduceRecipes(s RecipesState, ev Event) RecipesState {
	switch ev.Op {
	case OpClearCurrentRecipe:
		s.Current = nil
		return s
	case OpRecipesClearError:
		s.Error = ""
		return s
	case OpAddToFavorites, OpRemoveFromFavorites:
		return flagRecipe(s, ev, func(r *domain.Recipe, on bool) { r.IsFavorited = on })
	case OpAddToShoppingList, OpRemoveFromShoppingList:
		return flagRecipe(s, ev, func(r *domain.Recipe, on bool) { r.IsInShoppingCart = on })
	case OpSubscribe, OpUnsubscribe:
		return flagAuthor(s, ev)
	case OpLogout:
		if ev.Phase != PhasePending {
			return clearViewerFlags(s)
		}
		return s
	}
	if ev.Op.Slice() != SliceRecipes {
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

	switch ev.Op {
	case OpGetRecipes:
		loaded, ok := ev.Payload.(RecipesLoaded)
		if !ok {
			return s
		}
		s.Items = loaded.Page.Results
		s.Count = loaded.Page.Count
		s.TotalPages = domain.PagesOf(loaded.Page.Count, loaded.Limit)
		s.CurrentPage = loaded.Requested
		if s.CurrentPage < 1 {
			s.CurrentPage = 1
		}

	case OpGetRecipe:
		if r, ok := ev.Payload.(domain.Recipe); ok {
			s.Current = &r
		}

	case OpCreateRecipe:
		if r, ok := ev.Payload.(domain.Recipe); ok {
			s.Items = prepend(s.Items, r)
		}

	case OpUpdateRecipe:
		r, ok := ev.Payload.(domain.Recipe)
		if !ok {
			return s
		}
		s.Items, _ = replaceBy(s.Items, r, recipeID)
		if s.Current != nil && s.Current.ID == r.ID {
			s.Current = &r
		}

	case OpDeleteRecipe:
		id, ok := ev.Payload.(int)
		if !ok {
			return s
		}
		s.Items, _ = removeBy(s.Items, id, recipeID)
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
	}
	return s
}

// flagRecipe mirrors a favorite / cart change onto the loaded recipes.
func flagRecipe(s RecipesState, ev Event, set func(*domain.Recipe, bool)) RecipesState {
	if ev.Phase != PhaseFulfilled {
		return s
	}
	var id int
	var on bool
	switch p := ev.Payload.(type) {
	case domain.Recipe:
		id, on = p.ID, true
	case int:
		id, on = p, false
	default:
		return s
	}
	match := func(r domain.Recipe) bool { return r.ID == id }
	apply := func(r *domain.Recipe) { set(r, on) }
	s.Items = updateRecipes(s.Items, match, apply)
	s.Current = updateCurrent(s.Current, match, apply)
	return s
}

// flagAuthor mirrors a subscribe / unsubscribe onto recipe authors.
func flagAuthor(s RecipesState, ev Event) RecipesState {
	if ev.Phase != PhaseFulfilled {
		return s
	}
	var id int
	var on bool
	switch p := ev.Payload.(type) {
	case domain.Subscription:
		id, on = p.ID, true
	case int:
		id, on = p, false
	default:
		return s
	}
	match := func(r domain.Recipe) bool { return r.Author.ID == id }
	apply := func(r *domain.Recipe) { r.Author.IsSubscribed = on }
	s.Items = updateRecipes(s.Items, match, apply)
	s.Current = updateCurrent(s.Current, match, apply)
	return s
}

// clearViewerFlags drops the per-user markers once nobody is signed in.
func clearViewerFlags(s RecipesState) RecipesState {
	match := func(r domain.Recipe) bool {
		return r.IsFavorited || r.IsInShoppingCart || r.Author.IsSubscribed
	}
	apply := func(r *domain.Recipe) {
		r.IsFavorited = false
		r.IsInShoppingCart = false
		r.Author.IsSubscribed = false
	}
	s.Items = updateRecipes(s.Items, match, apply)
	s.Current = updateCurrent(s.Current, match, apply)
	return s
}
