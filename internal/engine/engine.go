// Package engine implements the asynchronous operations of the client. Each
// one announces itself to the store as pending, calls the service, and then
// reports fulfilled with the typed result or rejected with a readable message.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/recipebox/internal/api"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
	"github.com/hammamikhairi/recipebox/internal/state"
)

// Option configures the engine.
type Option func(*Engine)

// WithPageSize sets the list page size sent when a query leaves Limit at zero.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithRecipesLimit caps the recipe previews returned per followed author.
func WithRecipesLimit(n int) Option {
	return func(e *Engine) {
		e.recipesLimit = n
	}
}

// Engine runs operations against the service and feeds their lifecycle
// into the store. It depends only on interfaces and is fully testable
// with a fake service.
type Engine struct {
	api          domain.RecipeAPI
	tokens       domain.TokenStore
	store        *state.Store
	log          *logger.Logger
	pageSize     int
	recipesLimit int
}

// New creates an engine with the given dependencies and options.
func New(svc domain.RecipeAPI, tokens domain.TokenStore, store *state.Store, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		api:          svc,
		tokens:       tokens,
		store:        store,
		log:          log,
		pageSize:     domain.PageSize,
		recipesLimit: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the engine dispatches into.
func (e *Engine) Store() *state.Store { return e.store }

// run drives one operation through its lifecycle. payload maps the call's
// result to the fulfilled payload; nil means the result itself.
func run[T any](ctx context.Context, e *Engine, op state.Op, call func(context.Context) (T, error), payload func(T) any) (T, error) {
	seq := e.store.NextSeq()
	e.store.Dispatch(state.Pending(op, seq))

	v, err := call(ctx)
	if err != nil {
		msg := api.Message(err)
		e.log.Warn("%s failed: %s", op, msg)
		e.store.Dispatch(state.Rejected(op, seq, msg))
		return v, fmt.Errorf("%s: %w", op, err)
	}

	var p any = v
	if payload != nil {
		p = payload(v)
	}
	e.store.Dispatch(state.Fulfilled(op, seq, p))
	return v, nil
}

// exec is run for calls that produce nothing but an identifier.
func exec(ctx context.Context, e *Engine, op state.Op, id int, call func(context.Context) error) error {
	_, err := run(ctx, e, op, func(ctx context.Context) (int, error) {
		return id, call(ctx)
	}, nil)
	return err
}

// warnUnloaded logs when a mutation targets an item the client does not
// hold. The server is still the authority, so the call goes ahead.
func (e *Engine) warnUnloaded(op state.Op, items []domain.Recipe, id int) {
	if !state.Contains(items, id) {
		e.log.Warn("%s: recipe %d: %v locally, state unchanged", op, id, domain.ErrNotFound)
	}
}

// ── Auth ─────────────────────────────────────────────────────────

// Login exchanges credentials for a token, stores it, then loads the
// profile and the cart badge.
func (e *Engine) Login(ctx context.Context, creds domain.Credentials) error {
	_, err := run(ctx, e, state.OpLogin, func(ctx context.Context) (domain.AuthToken, error) {
		switch {
		case creds.Email == "":
			return domain.AuthToken{}, &domain.FieldError{Field: "email", Reason: "required"}
		case creds.Password == "":
			return domain.AuthToken{}, &domain.FieldError{Field: "password", Reason: "required"}
		}
		tok, err := e.api.Login(ctx, creds)
		if err != nil {
			return tok, err
		}
		if err := e.tokens.Set(ctx, tok.Token); err != nil {
			return tok, fmt.Errorf("storing token: %w", err)
		}
		return tok, nil
	}, nil)
	if err != nil {
		return err
	}

	e.log.Info("logged in as %s", creds.Email)
	if _, err := e.GetCurrentUser(ctx); err != nil {
		e.dropToken(ctx)
		return err
	}
	if _, err := e.FetchCartCount(ctx); err != nil {
		e.log.Warn("cart badge not loaded: %v", err)
	}
	return nil
}

// Logout ends the session. The local token is removed even when the
// server call fails, and the session is cleared either way.
func (e *Engine) Logout(ctx context.Context) error {
	_, err := run(ctx, e, state.OpLogout, func(ctx context.Context) (struct{}, error) {
		callErr := e.api.Logout(ctx)
		rmErr := e.tokens.Remove(ctx)
		if errors.Is(rmErr, domain.ErrNoToken) {
			rmErr = nil
		}
		if rmErr != nil {
			rmErr = fmt.Errorf("removing token: %w", rmErr)
		}
		return struct{}{}, errors.Join(callErr, rmErr)
	}, nil)
	if err == nil {
		e.log.Info("logged out")
	}
	return err
}

// Register creates an account. It does not log in.
func (e *Engine) Register(ctx context.Context, reg domain.Registration) (domain.UserProfile, error) {
	return run(ctx, e, state.OpRegister, func(ctx context.Context) (domain.UserProfile, error) {
		return e.api.Register(ctx, reg)
	}, nil)
}

// dropToken forgets a token the service would not accept.
func (e *Engine) dropToken(ctx context.Context) {
	if err := e.tokens.Remove(ctx); err != nil && !errors.Is(err, domain.ErrNoToken) {
		e.log.Warn("removing token: %v", err)
	}
}

// GetCurrentUser loads the profile of the token's owner.
func (e *Engine) GetCurrentUser(ctx context.Context) (domain.UserProfile, error) {
	return run(ctx, e, state.OpCurrentUser, e.api.CurrentUser, nil)
}

// FetchCartCount refreshes the shopping cart badge from the first page of
// the cart-filtered recipe list.
func (e *Engine) FetchCartCount(ctx context.Context) (int, error) {
	return run(ctx, e, state.OpCartCount, func(ctx context.Context) (int, error) {
		page, err := e.api.Recipes(ctx, domain.RecipeQuery{Page: 1, IsInShoppingCart: true})
		return page.Count, err
	}, nil)
}

// ── Recipes ──────────────────────────────────────────────────────

// GetRecipes loads one page of the recipe list. Page defaults to 1 and
// Limit to the engine's page size.
func (e *Engine) GetRecipes(ctx context.Context, q domain.RecipeQuery) (domain.RecipePage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = e.pageSize
	}
	return run(ctx, e, state.OpGetRecipes, func(ctx context.Context) (domain.RecipePage, error) {
		return e.api.Recipes(ctx, q)
	}, func(p domain.RecipePage) any {
		return state.RecipesLoaded{Page: p, Requested: q.Page, Limit: q.Limit}
	})
}

// GetRecipe loads a single recipe into the detail view.
func (e *Engine) GetRecipe(ctx context.Context, id int) (domain.Recipe, error) {
	return run(ctx, e, state.OpGetRecipe, func(ctx context.Context) (domain.Recipe, error) {
		return e.api.Recipe(ctx, id)
	}, nil)
}

// CreateRecipe publishes a recipe after local presence checks.
func (e *Engine) CreateRecipe(ctx context.Context, in domain.RecipeInput) (domain.Recipe, error) {
	return run(ctx, e, state.OpCreateRecipe, func(ctx context.Context) (domain.Recipe, error) {
		if err := in.Validate(); err != nil {
			return domain.Recipe{}, err
		}
		return e.api.CreateRecipe(ctx, in)
	}, nil)
}

// UpdateRecipe patches a recipe.
func (e *Engine) UpdateRecipe(ctx context.Context, id int, in domain.RecipeInput) (domain.Recipe, error) {
	e.warnUnloaded(state.OpUpdateRecipe, e.store.State().Recipes.Items, id)
	return run(ctx, e, state.OpUpdateRecipe, func(ctx context.Context) (domain.Recipe, error) {
		return e.api.UpdateRecipe(ctx, id, in)
	}, nil)
}

// DeleteRecipe removes a recipe.
func (e *Engine) DeleteRecipe(ctx context.Context, id int) error {
	e.warnUnloaded(state.OpDeleteRecipe, e.store.State().Recipes.Items, id)
	return exec(ctx, e, state.OpDeleteRecipe, id, func(ctx context.Context) error {
		return e.api.DeleteRecipe(ctx, id)
	})
}

// ClearCurrentRecipe closes the detail view.
func (e *Engine) ClearCurrentRecipe() {
	e.store.Dispatch(state.Action(state.OpClearCurrentRecipe))
}

// ── Favorites ────────────────────────────────────────────────────

// GetFavorites loads the favorites list.
func (e *Engine) GetFavorites(ctx context.Context) ([]domain.Recipe, error) {
	return run(ctx, e, state.OpGetFavorites, e.api.Favorites, nil)
}

// AddToFavorites marks a recipe as favorite.
func (e *Engine) AddToFavorites(ctx context.Context, id int) (domain.Recipe, error) {
	return run(ctx, e, state.OpAddToFavorites, func(ctx context.Context) (domain.Recipe, error) {
		return e.api.AddFavorite(ctx, id)
	}, nil)
}

// RemoveFromFavorites unmarks a recipe.
func (e *Engine) RemoveFromFavorites(ctx context.Context, id int) error {
	e.warnUnloaded(state.OpRemoveFromFavorites, e.store.State().Favorites.Items, id)
	return exec(ctx, e, state.OpRemoveFromFavorites, id, func(ctx context.Context) error {
		return e.api.RemoveFavorite(ctx, id)
	})
}

// ── Shopping list ────────────────────────────────────────────────

// GetShoppingList loads the shopping cart.
func (e *Engine) GetShoppingList(ctx context.Context) ([]domain.Recipe, error) {
	return run(ctx, e, state.OpGetShoppingList, e.api.ShoppingCart, nil)
}

// AddToShoppingList puts a recipe in the cart.
func (e *Engine) AddToShoppingList(ctx context.Context, id int) (domain.Recipe, error) {
	return run(ctx, e, state.OpAddToShoppingList, func(ctx context.Context) (domain.Recipe, error) {
		return e.api.AddToCart(ctx, id)
	}, nil)
}

// RemoveFromShoppingList takes a recipe out of the cart.
func (e *Engine) RemoveFromShoppingList(ctx context.Context, id int) error {
	e.warnUnloaded(state.OpRemoveFromShoppingList, e.store.State().ShoppingList.Items, id)
	return exec(ctx, e, state.OpRemoveFromShoppingList, id, func(ctx context.Context) error {
		return e.api.RemoveFromCart(ctx, id)
	})
}

// DownloadShoppingList fetches the server-built ingredient list. The
// document goes back to the caller and is not kept in state.
func (e *Engine) DownloadShoppingList(ctx context.Context) (domain.ShoppingDocument, error) {
	return run(ctx, e, state.OpDownloadShoppingList, e.api.DownloadShoppingCart, func(domain.ShoppingDocument) any {
		return nil
	})
}

// ── Subscriptions ────────────────────────────────────────────────

// GetSubscriptions loads one page of followed authors.
func (e *Engine) GetSubscriptions(ctx context.Context, q domain.SubscriptionQuery) (domain.SubscriptionPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = e.pageSize
	}
	if q.RecipesLimit <= 0 {
		q.RecipesLimit = e.recipesLimit
	}
	return run(ctx, e, state.OpGetSubscriptions, func(ctx context.Context) (domain.SubscriptionPage, error) {
		return e.api.Subscriptions(ctx, q)
	}, func(p domain.SubscriptionPage) any {
		return state.SubscriptionsLoaded{Page: p, Requested: q.Page, Limit: q.Limit}
	})
}

// Subscribe follows an author.
func (e *Engine) Subscribe(ctx context.Context, userID int) (domain.Subscription, error) {
	return run(ctx, e, state.OpSubscribe, func(ctx context.Context) (domain.Subscription, error) {
		return e.api.Subscribe(ctx, userID)
	}, nil)
}

// Unsubscribe stops following an author.
func (e *Engine) Unsubscribe(ctx context.Context, userID int) error {
	return exec(ctx, e, state.OpUnsubscribe, userID, func(ctx context.Context) error {
		return e.api.Unsubscribe(ctx, userID)
	})
}

// ── Synchronous actions ──────────────────────────────────────────

var clearOps = map[string]state.Op{
	state.SliceAuth:          state.OpAuthClearError,
	state.SliceRecipes:       state.OpRecipesClearError,
	state.SliceFavorites:     state.OpFavoritesClearError,
	state.SliceShoppingList:  state.OpShoppingClearError,
	state.SliceSubscriptions: state.OpSubscriptionsClearError,
}

// ClearError resets the error text of the named slice.
func (e *Engine) ClearError(slice string) error {
	op, ok := clearOps[slice]
	if !ok {
		return fmt.Errorf("unknown slice %q", slice)
	}
	e.store.Dispatch(state.Action(op))
	return nil
}
