// Package state holds the client-side mirror of the remote service: one
// slice per domain, pure reducers that apply lifecycle events to them, and
// the Store that serializes dispatches and notifies subscribers.
package state

import (
	"strings"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

// Phase marks where an asynchronous operation is in its lifecycle.
type Phase int

const (
	PhasePending Phase = iota
	PhaseFulfilled
	PhaseRejected
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseFulfilled:
		return "fulfilled"
	case PhaseRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Op names an operation as "<slice>/<operation>".
type Op string

// Auth operations.
const (
	OpLogin          Op = "auth/login"
	OpLogout         Op = "auth/logout"
	OpRegister       Op = "auth/register"
	OpCurrentUser    Op = "auth/getCurrentUser"
	OpAnonymous      Op = "auth/anonymous"
	OpAuthClearError Op = "auth/clearError"
)

// Recipe operations.
const (
	OpGetRecipes         Op = "recipes/getRecipes"
	OpGetRecipe          Op = "recipes/getRecipe"
	OpCreateRecipe       Op = "recipes/createRecipe"
	OpUpdateRecipe       Op = "recipes/updateRecipe"
	OpDeleteRecipe       Op = "recipes/deleteRecipe"
	OpClearCurrentRecipe Op = "recipes/clearCurrentRecipe"
	OpRecipesClearError  Op = "recipes/clearError"
)

// Favorites operations.
const (
	OpGetFavorites        Op = "favorites/getFavorites"
	OpAddToFavorites      Op = "favorites/addToFavorites"
	OpRemoveFromFavorites Op = "favorites/removeFromFavorites"
	OpFavoritesClearError Op = "favorites/clearError"
)

// Shopping list operations.
const (
	OpGetShoppingList        Op = "shoppingList/getShoppingList"
	OpAddToShoppingList      Op = "shoppingList/addToShoppingList"
	OpRemoveFromShoppingList Op = "shoppingList/removeFromShoppingList"
	OpDownloadShoppingList   Op = "shoppingList/downloadShoppingList"
	OpCartCount              Op = "shoppingList/cartCount"
	OpShoppingClearError     Op = "shoppingList/clearError"
)

// Subscription operations.
const (
	OpGetSubscriptions        Op = "subscriptions/getSubscriptions"
	OpSubscribe               Op = "subscriptions/subscribe"
	OpUnsubscribe             Op = "subscriptions/unsubscribe"
	OpSubscriptionsClearError Op = "subscriptions/clearError"
)

// Slice names, as used in Op prefixes.
const (
	SliceAuth          = "auth"
	SliceRecipes       = "recipes"
	SliceFavorites     = "favorites"
	SliceShoppingList  = "shoppingList"
	SliceSubscriptions = "subscriptions"
)

// Slice returns the name of the slice that owns the operation.
func (o Op) Slice() string {
	s, _, _ := strings.Cut(string(o), "/")
	return s
}

// LatestWins reports whether only the most recently issued request of this
// operation may change state. These are the operations that replace slice
// content wholesale, where an out-of-order response would clobber a newer one.
func (o Op) LatestWins() bool {
	switch o {
	case OpGetRecipes, OpGetRecipe, OpCurrentUser, OpGetFavorites,
		OpGetShoppingList, OpCartCount, OpGetSubscriptions:
		return true
	}
	return false
}

// Event is one lifecycle transition, or a plain synchronous action when
// Seq is zero.
//
// Payload types by operation (fulfilled only):
//
//	OpLogin                          domain.AuthToken
//	OpRegister, OpCurrentUser        domain.UserProfile
//	OpGetRecipes                     RecipesLoaded
//	OpGetRecipe, Create, Update      domain.Recipe
//	OpDeleteRecipe, Remove*          int (identifier)
//	OpGetFavorites, OpGetShoppingList []domain.Recipe
//	OpAddToFavorites, OpAddToShoppingList domain.Recipe
//	OpCartCount                      int
//	OpGetSubscriptions               SubscriptionsLoaded
//	OpSubscribe                      domain.Subscription
//	OpUnsubscribe                    int (user identifier)
type Event struct {
	Op      Op
	Phase   Phase
	Seq     uint64
	Payload any
	Err     string
}

// RecipesLoaded is the OpGetRecipes payload. Requested and Limit are the
// page and page size that were asked for, since the service does not echo
// them back. A zero Limit means domain.PageSize.
type RecipesLoaded struct {
	Page      domain.RecipePage
	Requested int
	Limit     int
}

// SubscriptionsLoaded is the OpGetSubscriptions payload.
type SubscriptionsLoaded struct {
	Page      domain.SubscriptionPage
	Requested int
	Limit     int
}

// Pending builds the event emitted before a request is sent.
func Pending(op Op, seq uint64) Event {
	return Event{Op: op, Phase: PhasePending, Seq: seq}
}

// Fulfilled builds the event emitted when a request succeeds.
func Fulfilled(op Op, seq uint64, payload any) Event {
	return Event{Op: op, Phase: PhaseFulfilled, Seq: seq, Payload: payload}
}

// Rejected builds the event emitted when a request fails.
func Rejected(op Op, seq uint64, msg string) Event {
	return Event{Op: op, Phase: PhaseRejected, Seq: seq, Err: msg}
}

// Action builds a synchronous action such as OpClearCurrentRecipe.
func Action(op Op) Event {
	return Event{Op: op, Phase: PhaseFulfilled}
}
