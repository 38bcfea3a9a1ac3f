package domain

// IntentType classifies what the user typed at the prompt.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentListRecipes
	IntentPage
	IntentNextPage
	IntentPrevPage
	IntentShowRecipe
	IntentFavorite
	IntentUnfavorite
	IntentListFavorites
	IntentCartAdd
	IntentCartRemove
	IntentListCart
	IntentDownloadCart
	IntentSubscribe
	IntentUnsubscribe
	IntentListSubscriptions
	IntentDeleteRecipe
	IntentWhoAmI
	IntentLogout
	IntentRefresh
	IntentHelp
	IntentQuit
)

// intentNames maps snake_case names to IntentType values.
var intentNames = map[string]IntentType{
	"unknown":            IntentUnknown,
	"list_recipes":       IntentListRecipes,
	"page":               IntentPage,
	"next_page":          IntentNextPage,
	"prev_page":          IntentPrevPage,
	"show_recipe":        IntentShowRecipe,
	"favorite":           IntentFavorite,
	"unfavorite":         IntentUnfavorite,
	"list_favorites":     IntentListFavorites,
	"cart_add":           IntentCartAdd,
	"cart_remove":        IntentCartRemove,
	"list_cart":          IntentListCart,
	"download_cart":      IntentDownloadCart,
	"subscribe":          IntentSubscribe,
	"unsubscribe":        IntentUnsubscribe,
	"list_subscriptions": IntentListSubscriptions,
	"delete_recipe":      IntentDeleteRecipe,
	"whoami":             IntentWhoAmI,
	"logout":             IntentLogout,
	"refresh":            IntentRefresh,
	"help":               IntentHelp,
	"quit":               IntentQuit,
}

// String returns the snake_case name of the intent.
func (i IntentType) String() string {
	for name, t := range intentNames {
		if t == i {
			return name
		}
	}
	return "unknown"
}

// NeedsID reports whether the intent requires a numeric argument.
func (i IntentType) NeedsID() bool {
	switch i {
	case IntentPage, IntentShowRecipe, IntentFavorite, IntentUnfavorite,
		IntentCartAdd, IntentCartRemove, IntentSubscribe, IntentUnsubscribe,
		IntentDeleteRecipe:
		return true
	}
	return false
}

// Intent represents a parsed user action.
type Intent struct {
	Type IntentType
	ID   int    // recipe, user or page number for intents that need one
	Raw  string // the original input
}
