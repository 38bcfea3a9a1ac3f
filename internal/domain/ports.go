package domain

import "context"

// TokenKey is the single well-known key the auth token is stored under.
const TokenKey = "token"

// TokenStore is durable client storage for the auth token. Implementations
// can be in-memory, a JSON file, or SQLite. Get returns ErrNoToken when no
// token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// RecipeAPI is the remote service as seen by the dispatchers.
type RecipeAPI interface {
	Login(ctx context.Context, creds Credentials) (AuthToken, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg Registration) (UserProfile, error)
	CurrentUser(ctx context.Context) (UserProfile, error)

	Recipes(ctx context.Context, q RecipeQuery) (RecipePage, error)
	Recipe(ctx context.Context, id int) (Recipe, error)
	CreateRecipe(ctx context.Context, in RecipeInput) (Recipe, error)
	UpdateRecipe(ctx context.Context, id int, in RecipeInput) (Recipe, error)
	DeleteRecipe(ctx context.Context, id int) error

	Favorites(ctx context.Context) ([]Recipe, error)
	AddFavorite(ctx context.Context, id int) (Recipe, error)
	RemoveFavorite(ctx context.Context, id int) error

	ShoppingCart(ctx context.Context) ([]Recipe, error)
	AddToCart(ctx context.Context, id int) (Recipe, error)
	RemoveFromCart(ctx context.Context, id int) error
	DownloadShoppingCart(ctx context.Context) (ShoppingDocument, error)

	Subscriptions(ctx context.Context, q SubscriptionQuery) (SubscriptionPage, error)
	Subscribe(ctx context.Context, userID int) (Subscription, error)
	Unsubscribe(ctx context.Context, userID int) error
}

// Notifier delivers messages to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// IntentParser converts raw REPL input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
