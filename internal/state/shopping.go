package state

import "github.com/hammamikhairi/recipebox/internal/domain"

func reduceShoppingList(s ShoppingListState, ev Event) ShoppingListState {
	switch ev.Op {
	case OpShoppingClearError:
		s.Error = ""
		return s
	case OpLogout:
		if ev.Phase != PhasePending {
			return ShoppingListState{}
		}
		return s
	case OpCartCount:
		// Background badge refresh: never touches loading or error.
		if n, ok := ev.Payload.(int); ok && ev.Phase == PhaseFulfilled {
			s.CartCount = n
		}
		return s
	}
	if ev.Op.Slice() != SliceShoppingList {
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
	case OpGetShoppingList:
		if items, ok := ev.Payload.([]domain.Recipe); ok {
			s.Items = items
			s.CartCount = len(items)
		}
	case OpAddToShoppingList:
		if r, ok := ev.Payload.(domain.Recipe); ok {
			var added bool
			s.Items, added = upsertBy(s.Items, r, recipeID)
			if added {
				s.CartCount++
			}
		}
	case OpRemoveFromShoppingList:
		if id, ok := ev.Payload.(int); ok {
			s.Items, _ = removeBy(s.Items, id, recipeID)
			// The badge can know about more recipes than Items holds
			// when the list was never fetched.
			if s.CartCount > 0 {
				s.CartCount--
			}
		}
	}
	return s
}
