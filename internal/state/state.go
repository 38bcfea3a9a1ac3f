package state

import "github.com/hammamikhairi/recipebox/internal/domain"

// State is the whole client-side tree. Values handed out by the Store are
// snapshots: reducers never write into a slice's backing arrays, so a
// snapshot stays valid after later dispatches. Callers must not mutate it.
type State struct {
	Auth          AuthState
	Recipes       RecipesState
	Favorites     FavoritesState
	ShoppingList  ShoppingListState
	Subscriptions SubscriptionsState

	// requests records the newest sequence number seen per latest-wins op.
	requests map[Op]uint64
}

// AuthState is the session slice.
type AuthState struct {
	User            *domain.UserProfile
	IsAuthenticated bool
	Status          domain.SessionStatus
	Loading         bool
	Error           string
}

// RecipesState is the paginated recipe collection plus the open recipe.
type RecipesState struct {
	Items       []domain.Recipe
	Current     *domain.Recipe
	Loading     bool
	Error       string
	Count       int
	TotalPages  int
	CurrentPage int
}

// FavoritesState is the current user's favorite recipes.
type FavoritesState struct {
	Items   []domain.Recipe
	Loading bool
	Error   string
}

// ShoppingListState is the current user's shopping cart. CartCount backs
// the header badge and is maintained separately from Items, which is only
// filled by an explicit list fetch.
type ShoppingListState struct {
	Items     []domain.Recipe
	Loading   bool
	Error     string
	CartCount int
}

// SubscriptionsState is the list of followed authors.
type SubscriptionsState struct {
	Items       []domain.Subscription
	Loading     bool
	Error       string
	Count       int
	TotalPages  int
	CurrentPage int
}

// Initial returns the state at process start.
func Initial() State {
	return State{
		Auth:          AuthState{Status: domain.SessionUnknown},
		Recipes:       RecipesState{TotalPages: 1, CurrentPage: 1},
		Subscriptions: SubscriptionsState{TotalPages: 1, CurrentPage: 1},
	}
}

// Error returns the error text of the named slice.
func (s State) Error(slice string) string {
	switch slice {
	case SliceAuth:
		return s.Auth.Error
	case SliceRecipes:
		return s.Recipes.Error
	case SliceFavorites:
		return s.Favorites.Error
	case SliceShoppingList:
		return s.ShoppingList.Error
	case SliceSubscriptions:
		return s.Subscriptions.Error
	}
	return ""
}

// Loading reports whether any slice has a request in flight.
func (s State) Loading() bool {
	return s.Auth.Loading || s.Recipes.Loading || s.Favorites.Loading ||
		s.ShoppingList.Loading || s.Subscriptions.Loading
}
