package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/recipebox/internal/api"
	"github.com/hammamikhairi/recipebox/internal/apitest"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
	"github.com/hammamikhairi/recipebox/internal/state"
	"github.com/hammamikhairi/recipebox/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	eng    *Engine
	srv    *apitest.Server
	tokens *storage.MemoryStore
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	srv := apitest.NewServer(log)
	t.Cleanup(srv.Close)

	tokens := storage.NewMemoryStore(log)
	return &fixture{
		eng:    newEngine(t, srv, tokens),
		srv:    srv,
		tokens: tokens,
		ctx:    context.Background(),
	}
}

// newEngine builds an engine with a fresh store on an existing server.
func newEngine(t *testing.T, srv *apitest.Server, tokens domain.TokenStore, opts ...Option) *Engine {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)

	client := api.NewClient(srv.URL(), tokens, log, api.WithHTTPClient(&http.Client{Transport: tr}))
	return New(client, tokens, state.NewStore(log), log, opts...)
}

func (f *fixture) loginAs(t *testing.T, u apitest.SeedUser) {
	t.Helper()
	require.NoError(t, f.eng.Login(f.ctx, domain.Credentials{Email: u.Profile.Email, Password: u.Password}))
}

func ids(items []domain.Recipe) []int {
	out := make([]int, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func countRequests(srv *apitest.Server, method, path string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ── Auth ─────────────────────────────────────────────────────────

func TestLoginStoresTokenAndLoadsUser(t *testing.T) {
	f := setup(t)

	err := f.eng.Login(f.ctx, domain.Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)

	tok, err := f.tokens.Get(f.ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	s := f.eng.Store().State()
	assert.True(t, s.Auth.IsAuthenticated)
	assert.Equal(t, domain.SessionAuthenticated, s.Auth.Status)
	require.NotNil(t, s.Auth.User)
	assert.Equal(t, "a@b.com", s.Auth.User.Email)
	assert.False(t, s.Auth.Loading)
	assert.Empty(t, s.Auth.Error)

	reqs := f.srv.Requests()
	require.GreaterOrEqual(t, len(reqs), 2)
	assert.Equal(t, "/api/auth/token/login/", reqs[0].Path)
	assert.Empty(t, reqs[0].Authorization)
	for _, r := range reqs[1:] {
		assert.Equal(t, "Token "+tok, r.Authorization, r.Path)
	}
}

func TestLoginRejected(t *testing.T) {
	f := setup(t)

	err := f.eng.Login(f.ctx, domain.Credentials{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))

	s := f.eng.Store().State()
	assert.False(t, s.Auth.IsAuthenticated)
	assert.False(t, s.Auth.Loading)
	assert.Equal(t, "Unable to log in with provided credentials.", s.Auth.Error)

	_, err = f.tokens.Get(f.ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestLoginDropsTokenWhenProfileFails(t *testing.T) {
	f := setup(t)
	f.srv.OnRequest(func(r *http.Request) {
		if r.URL.Path == "/api/users/me/" {
			f.srv.RevokeTokens()
		}
	})

	err := f.eng.Login(f.ctx, domain.Credentials{Email: "a@b.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))

	_, err = f.tokens.Get(f.ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)

	s := f.eng.Store().State()
	assert.False(t, s.Auth.IsAuthenticated)
	assert.Equal(t, domain.SessionUnauthenticated, s.Auth.Status)
	assert.Nil(t, s.Auth.User)
}

func TestLoginMissingFieldsSkipsNetwork(t *testing.T) {
	f := setup(t)

	err := f.eng.Login(f.ctx, domain.Credentials{Email: "a@b.com"})
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "password", fe.Field)
	assert.Empty(t, f.srv.Requests())
	assert.Equal(t, "password: required", f.eng.Store().State().Auth.Error)
}

func TestLogoutClearsSessionEvenWhenServerFails(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Guest)

	f.srv.RevokeTokens()
	err := f.eng.Logout(f.ctx)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))

	s := f.eng.Store().State()
	assert.Nil(t, s.Auth.User)
	assert.False(t, s.Auth.IsAuthenticated)
	assert.Equal(t, domain.SessionUnauthenticated, s.Auth.Status)

	_, err = f.tokens.Get(f.ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestLogout(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)
	_, err := f.eng.AddToShoppingList(f.ctx, 1)
	require.NoError(t, err)

	require.NoError(t, f.eng.Logout(f.ctx))

	s := f.eng.Store().State()
	assert.Equal(t, domain.SessionUnauthenticated, s.Auth.Status)
	assert.Empty(t, s.Auth.Error)
	assert.Zero(t, s.ShoppingList.CartCount)
}

func TestRegister(t *testing.T) {
	f := setup(t)

	u, err := f.eng.Register(f.ctx, domain.Registration{
		Email: "new@example.com", Username: "newbie", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "newbie", u.Username)
	assert.False(t, f.eng.Store().State().Auth.IsAuthenticated)

	_, err = f.eng.Register(f.ctx, domain.Registration{
		Email: "new@example.com", Username: "other", Password: "secret",
	})
	require.Error(t, err)
	assert.Equal(t, "email: user with this email address already exists.", f.eng.Store().State().Auth.Error)

	require.NoError(t, f.eng.ClearError(state.SliceAuth))
	assert.Empty(t, f.eng.Store().State().Auth.Error)
}

// ── Bootstrap ────────────────────────────────────────────────────

func TestBootstrapWithoutToken(t *testing.T) {
	f := setup(t)

	status, err := f.eng.Bootstrap(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionUnauthenticated, status)
	assert.Equal(t, domain.SessionUnauthenticated, f.eng.Store().State().Auth.Status)
	assert.Empty(t, f.srv.Requests())
}

func TestBootstrapWithValidToken(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(f.ctx, f.srv.IssueToken(apitest.Chef.Profile.ID)))

	// Fill the cart through one engine, then start a fresh one.
	for _, id := range []int{1, 2} {
		_, err := f.eng.AddToShoppingList(f.ctx, id)
		require.NoError(t, err)
	}
	eng := newEngine(t, f.srv, f.tokens)

	status, err := eng.Bootstrap(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAuthenticated, status)

	s := eng.Store().State()
	assert.True(t, s.Auth.IsAuthenticated)
	require.NotNil(t, s.Auth.User)
	assert.Equal(t, apitest.Chef.Profile.Email, s.Auth.User.Email)
	assert.Equal(t, 2, s.ShoppingList.CartCount)
	assert.Empty(t, s.ShoppingList.Items)

	reqs := f.srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/api/recipes/", last.Path)
	assert.Contains(t, last.Query, "is_in_shopping_cart=1")
	assert.Contains(t, last.Query, "page=1")
}

func TestBootstrapWithRejectedToken(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(f.ctx, "expired"))

	var errs []string
	unsub := f.eng.Store().Subscribe(func(s state.State) {
		if s.Auth.Error != "" {
			errs = append(errs, s.Auth.Error)
		}
	})
	defer unsub()

	status, err := f.eng.Bootstrap(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionUnauthenticated, status)

	s := f.eng.Store().State()
	assert.Equal(t, domain.SessionUnauthenticated, s.Auth.Status)
	assert.Nil(t, s.Auth.User)
	assert.False(t, s.Auth.Loading)
	assert.Empty(t, errs, "signing out a stale session is silent")

	_, err = f.tokens.Get(f.ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

// ── Recipes ──────────────────────────────────────────────────────

func TestGetRecipesPaginates(t *testing.T) {
	f := setup(t)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.NoError(t, err)

	s := f.eng.Store().State().Recipes
	assert.Equal(t, []int{13, 12, 11, 10, 9, 8}, ids(s.Items))
	assert.Equal(t, apitest.SeedRecipeCount, s.Count)
	assert.Equal(t, 3, s.TotalPages)
	assert.Equal(t, 1, s.CurrentPage)

	_, err = f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 3})
	require.NoError(t, err)

	s = f.eng.Store().State().Recipes
	assert.Equal(t, []int{1}, ids(s.Items))
	assert.Equal(t, 3, s.CurrentPage)

	reqs := f.srv.Requests()
	assert.Contains(t, reqs[0].Query, "limit=6")
}

func TestPageSizeOptions(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Guest)
	eng := newEngine(t, f.srv, f.tokens, WithPageSize(12), WithRecipesLimit(1))

	_, err := eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.NoError(t, err)
	s := eng.Store().State().Recipes
	assert.Len(t, s.Items, 12)
	assert.Equal(t, 2, s.TotalPages)

	_, err = eng.Subscribe(f.ctx, apitest.Chef.Profile.ID)
	require.NoError(t, err)
	page, err := eng.GetSubscriptions(f.ctx, domain.SubscriptionQuery{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Len(t, page.Results[0].Recipes, 1)

	reqs := f.srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Contains(t, last.Query, "limit=12")
	assert.Contains(t, last.Query, "recipes_limit=1")
}

func TestGetRecipesOutOfRange(t *testing.T) {
	f := setup(t)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 9})
	require.Error(t, err)

	s := f.eng.Store().State().Recipes
	assert.Equal(t, "Invalid page.", s.Error)
	assert.False(t, s.Loading)
}

func TestStaleListResponseIsDropped(t *testing.T) {
	f := setup(t)

	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.srv.OnRequest(func(r *http.Request) {
		if r.URL.Path == "/api/recipes/" && r.URL.Query().Get("page") == "1" {
			once.Do(func() { close(arrived) })
			<-release
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 1})
		done <- err
	}()

	<-arrived
	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 2})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	s := f.eng.Store().State().Recipes
	assert.Equal(t, []int{7, 6, 5, 4, 3, 2}, ids(s.Items))
	assert.Equal(t, 2, s.CurrentPage)
	assert.False(t, s.Loading)
}

func TestCreateThenFetch(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.NoError(t, err)

	created, err := f.eng.CreateRecipe(f.ctx, domain.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		Tags:        []int{1},
		Ingredients: []domain.IngredientRef{{ID: 10, Amount: 50}},
	})
	require.NoError(t, err)
	assert.Equal(t, apitest.SeedRecipeCount+1, created.ID)

	s := f.eng.Store().State().Recipes
	require.NotEmpty(t, s.Items)
	assert.Equal(t, created.ID, s.Items[0].ID)

	got, err := f.eng.GetRecipe(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Name)

	s = f.eng.Store().State().Recipes
	require.NotNil(t, s.Current)
	assert.Equal(t, created.ID, s.Current.ID)
	assert.Equal(t, "rice", s.Current.Ingredients[0].Name)

	f.eng.ClearCurrentRecipe()
	assert.Nil(t, f.eng.Store().State().Recipes.Current)
}

func TestCreateRecipeValidatesLocally(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.CreateRecipe(f.ctx, domain.RecipeInput{Text: "nameless", CookingTime: 5})
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.Zero(t, countRequests(f.srv, http.MethodPost, "/api/recipes/"))
	assert.Equal(t, "name: required", f.eng.Store().State().Recipes.Error)
}

func TestCreateRecipeServerValidation(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.CreateRecipe(f.ctx, domain.RecipeInput{
		Name:        "Bad",
		CookingTime: 5,
		Ingredients: []domain.IngredientRef{{ID: 999, Amount: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, `ingredients: Invalid pk "999" - object does not exist.`, f.eng.Store().State().Recipes.Error)
}

func TestUpdateRecipe(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 3})
	require.NoError(t, err)
	_, err = f.eng.GetRecipe(f.ctx, 1)
	require.NoError(t, err)

	updated, err := f.eng.UpdateRecipe(f.ctx, 1, domain.RecipeInput{Name: "Chicken Alfredo v2"})
	require.NoError(t, err)
	assert.Equal(t, "Chicken Alfredo v2", updated.Name)

	s := f.eng.Store().State().Recipes
	assert.Equal(t, "Chicken Alfredo v2", s.Items[0].Name)
	assert.Equal(t, "Chicken Alfredo v2", s.Current.Name)
}

func TestUpdateUnloadedRecipeLeavesStateAlone(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.NoError(t, err)
	before := f.eng.Store().State().Recipes.Items

	_, err = f.eng.UpdateRecipe(f.ctx, 1, domain.RecipeInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, before, f.eng.Store().State().Recipes.Items)
}

func TestUpdateForeignRecipeRejected(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.UpdateRecipe(f.ctx, 2, domain.RecipeInput{Name: "Mine now"})
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusForbidden))
	assert.Equal(t, "You do not have permission to perform this action.", f.eng.Store().State().Recipes.Error)
}

func TestDeleteRecipe(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.NoError(t, err)

	require.NoError(t, f.eng.DeleteRecipe(f.ctx, 12))
	assert.Equal(t, []int{13, 11, 10, 9, 8}, ids(f.eng.Store().State().Recipes.Items))

	_, err = f.eng.GetRecipe(f.ctx, 12)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Not found.", f.eng.Store().State().Recipes.Error)
}

// ── Favorites / shopping list ────────────────────────────────────

func TestFavoritesRoundTrip(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Guest)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 3})
	require.NoError(t, err)

	r, err := f.eng.AddToFavorites(f.ctx, 1)
	require.NoError(t, err)
	assert.True(t, r.IsFavorited)

	s := f.eng.Store().State()
	assert.Equal(t, []int{1}, ids(s.Favorites.Items))
	assert.True(t, s.Recipes.Items[0].IsFavorited)

	_, err = f.eng.AddToFavorites(f.ctx, 1)
	require.Error(t, err)
	assert.Equal(t, "errors: Recipe is already in favorites.", f.eng.Store().State().Favorites.Error)

	favs, err := f.eng.GetFavorites(f.ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)
	assert.Empty(t, f.eng.Store().State().Favorites.Error)

	require.NoError(t, f.eng.RemoveFromFavorites(f.ctx, 1))
	s = f.eng.Store().State()
	assert.Empty(t, s.Favorites.Items)
	assert.False(t, s.Recipes.Items[0].IsFavorited)
}

func TestShoppingCartBadgeAndDownload(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Guest)
	assert.Zero(t, f.eng.Store().State().ShoppingList.CartCount)

	for _, id := range []int{1, 2} {
		_, err := f.eng.AddToShoppingList(f.ctx, id)
		require.NoError(t, err)
	}
	s := f.eng.Store().State().ShoppingList
	assert.Equal(t, 2, s.CartCount)
	assert.Equal(t, []int{1, 2}, ids(s.Items))

	doc, err := f.eng.DownloadShoppingList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "shopping_list.txt", doc.Filename)
	body := string(doc.Body)
	assert.True(t, strings.HasPrefix(body, "Shopping List\n"))
	assert.Contains(t, body, "garlic - 7 cloves\n")
	assert.Contains(t, body, "olive oil - 3 tbsp\n")
	assert.False(t, f.eng.Store().State().ShoppingList.Loading)

	require.NoError(t, f.eng.RemoveFromShoppingList(f.ctx, 1))
	s = f.eng.Store().State().ShoppingList
	assert.Equal(t, 1, s.CartCount)
	assert.Equal(t, []int{2}, ids(s.Items))

	n, err := f.eng.FetchCartCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnonymousCartRequiresLogin(t *testing.T) {
	f := setup(t)

	_, err := f.eng.GetShoppingList(f.ctx)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "Authentication credentials were not provided.", f.eng.Store().State().ShoppingList.Error)

	require.NoError(t, f.eng.ClearError(state.SliceShoppingList))
	assert.Empty(t, f.eng.Store().State().ShoppingList.Error)
	assert.Error(t, f.eng.ClearError("nope"))
}

// ── Subscriptions ────────────────────────────────────────────────

func TestSubscriptions(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Chef)

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{Page: 2})
	require.NoError(t, err)

	sub, err := f.eng.Subscribe(f.ctx, apitest.Guest.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.RecipesCount)

	s := f.eng.Store().State()
	assert.Len(t, s.Subscriptions.Items, 1)
	for _, r := range s.Recipes.Items {
		assert.Equal(t, r.Author.ID == apitest.Guest.Profile.ID, r.Author.IsSubscribed, r.ID)
	}

	page, err := f.eng.GetSubscriptions(f.ctx, domain.SubscriptionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, "Vegetable Stir Fry", page.Results[0].Recipes[0].Name)

	_, err = f.eng.Subscribe(f.ctx, apitest.Chef.Profile.ID)
	require.Error(t, err)
	assert.Equal(t, "errors: You cannot subscribe to yourself.", f.eng.Store().State().Subscriptions.Error)

	require.NoError(t, f.eng.Unsubscribe(f.ctx, apitest.Guest.Profile.ID))
	assert.Empty(t, f.eng.Store().State().Subscriptions.Items)
}

// ── Refresh / transport ──────────────────────────────────────────

func TestRefreshLoadsEverySlice(t *testing.T) {
	f := setup(t)
	f.loginAs(t, apitest.Guest)
	_, err := f.eng.AddToFavorites(f.ctx, 2)
	require.NoError(t, err)

	eng := newEngine(t, f.srv, f.tokens)
	_, err = eng.Bootstrap(f.ctx)
	require.NoError(t, err)
	require.NoError(t, eng.Refresh(f.ctx))

	s := eng.Store().State()
	assert.Len(t, s.Recipes.Items, domain.PageSize)
	assert.Equal(t, []int{2}, ids(s.Favorites.Items))
	assert.NotNil(t, s.ShoppingList.Items)
	assert.False(t, s.Loading())
}

func TestRefreshAnonymousSkipsPrivateLists(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.eng.Refresh(f.ctx))
	assert.Zero(t, countRequests(f.srv, http.MethodGet, "/api/recipes/favorites/"))
	assert.Zero(t, countRequests(f.srv, http.MethodGet, "/api/recipes/shopping-cart/"))
}

func TestTransportFailureIsRejected(t *testing.T) {
	f := setup(t)
	f.srv.Close()

	_, err := f.eng.GetRecipes(f.ctx, domain.RecipeQuery{})
	require.Error(t, err)

	var tErr *api.TransportError
	assert.True(t, errors.As(err, &tErr))

	s := f.eng.Store().State().Recipes
	assert.NotEmpty(t, s.Error)
	assert.False(t, s.Loading)
}
