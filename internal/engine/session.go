package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/recipebox/internal/api"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/state"
)

// Bootstrap resolves the session at startup. Without a stored token the
// session goes straight to unauthenticated. With one, the profile is
// fetched: on success the cart badge follows, on any failure the token is
// dropped and the session is unauthenticated. A failed profile fetch is
// not an error for the caller and leaves no error in the auth slice.
func (e *Engine) Bootstrap(ctx context.Context) (domain.SessionStatus, error) {
	token, err := e.tokens.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrNoToken), err == nil && token == "":
		e.log.Debug("bootstrap: no stored token")
		e.store.Dispatch(state.Action(state.OpAnonymous))
		return domain.SessionUnauthenticated, nil
	case err != nil:
		e.store.Dispatch(state.Action(state.OpAnonymous))
		return domain.SessionUnauthenticated, fmt.Errorf("reading token: %w", err)
	}

	if err := e.resumeSession(ctx); err != nil {
		e.log.Info("bootstrap: stored token rejected, signing out: %s", api.Message(err))
		e.dropToken(ctx)
		return domain.SessionUnauthenticated, nil
	}

	if _, err := e.FetchCartCount(ctx); err != nil {
		e.log.Warn("bootstrap: cart badge not loaded: %v", err)
	}
	return domain.SessionAuthenticated, nil
}

// resumeSession loads the profile for a stored token. Unlike
// GetCurrentUser, a failure is recorded without a message: an expired
// token is routine and the user did not ask for anything.
func (e *Engine) resumeSession(ctx context.Context) error {
	seq := e.store.NextSeq()
	e.store.Dispatch(state.Pending(state.OpCurrentUser, seq))
	u, err := e.api.CurrentUser(ctx)
	if err != nil {
		e.store.Dispatch(state.Rejected(state.OpCurrentUser, seq, ""))
		return err
	}
	e.store.Dispatch(state.Fulfilled(state.OpCurrentUser, seq, u))
	return nil
}

// Refresh reloads the current recipe page and, when signed in, the
// favorites and the shopping list. The loads run in parallel; each slice
// records its own outcome and the first error is returned.
func (e *Engine) Refresh(ctx context.Context) error {
	snap := e.store.State()

	var g errgroup.Group
	g.Go(func() error {
		_, err := e.GetRecipes(ctx, domain.RecipeQuery{Page: snap.Recipes.CurrentPage})
		return err
	})
	if snap.Auth.IsAuthenticated {
		g.Go(func() error {
			_, err := e.GetFavorites(ctx)
			return err
		})
		g.Go(func() error {
			_, err := e.GetShoppingList(ctx)
			return err
		})
	}
	return g.Wait()
}
