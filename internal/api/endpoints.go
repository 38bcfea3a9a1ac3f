package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

// ── Auth ─────────────────────────────────────────────────────────

// Login exchanges credentials for a token. It does not store the token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	var tok domain.AuthToken
	err := c.Do(ctx, http.MethodPost, "/auth/token/login/", creds, nil, &tok)
	return tok, err
}

// Logout invalidates the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/token/logout/", nil, nil, nil)
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.UserProfile, error) {
	var u domain.UserProfile
	err := c.Do(ctx, http.MethodPost, "/users/", reg, nil, &u)
	return u, err
}

// CurrentUser returns the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (domain.UserProfile, error) {
	var u domain.UserProfile
	err := c.Do(ctx, http.MethodGet, "/users/me/", nil, nil, &u)
	return u, err
}

// ── Recipes ──────────────────────────────────────────────────────

// Recipes returns one page of the recipe list.
func (c *Client) Recipes(ctx context.Context, q domain.RecipeQuery) (domain.RecipePage, error) {
	var page domain.RecipePage
	err := c.Do(ctx, http.MethodGet, "/recipes/", nil, recipeValues(q), &page)
	return page, err
}

func recipeValues(q domain.RecipeQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Author > 0 {
		v.Set("author", strconv.Itoa(q.Author))
	}
	for _, t := range q.Tags {
		v.Add("tags", t)
	}
	if q.IsFavorited {
		v.Set("is_favorited", "1")
	}
	if q.IsInShoppingCart {
		v.Set("is_in_shopping_cart", "1")
	}
	return v
}

// Recipe returns a single recipe.
func (c *Client) Recipe(ctx context.Context, id int) (domain.Recipe, error) {
	var r domain.Recipe
	err := c.Do(ctx, http.MethodGet, recipePath(id, ""), nil, nil, &r)
	return r, err
}

// CreateRecipe publishes a new recipe.
func (c *Client) CreateRecipe(ctx context.Context, in domain.RecipeInput) (domain.Recipe, error) {
	var r domain.Recipe
	err := c.Do(ctx, http.MethodPost, "/recipes/", in, nil, &r)
	return r, err
}

// UpdateRecipe patches an existing recipe.
func (c *Client) UpdateRecipe(ctx context.Context, id int, in domain.RecipeInput) (domain.Recipe, error) {
	var r domain.Recipe
	err := c.Do(ctx, http.MethodPatch, recipePath(id, ""), in, nil, &r)
	return r, err
}

// DeleteRecipe removes a recipe. The service answers 204 with no body.
func (c *Client) DeleteRecipe(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, recipePath(id, ""), nil, nil, nil)
}

func recipePath(id int, action string) string {
	if action == "" {
		return fmt.Sprintf("/recipes/%d/", id)
	}
	return fmt.Sprintf("/recipes/%d/%s/", id, action)
}

// ── Favorites ────────────────────────────────────────────────────

// Favorites lists the current user's favorite recipes.
func (c *Client) Favorites(ctx context.Context) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := c.Do(ctx, http.MethodGet, "/recipes/favorites/", nil, nil, &out)
	return out, err
}

// AddFavorite marks a recipe as favorite and returns it.
func (c *Client) AddFavorite(ctx context.Context, id int) (domain.Recipe, error) {
	var r domain.Recipe
	err := c.Do(ctx, http.MethodPost, recipePath(id, "favorite"), nil, nil, &r)
	return r, err
}

// RemoveFavorite unmarks a recipe as favorite.
func (c *Client) RemoveFavorite(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, recipePath(id, "favorite"), nil, nil, nil)
}

// ── Shopping cart ────────────────────────────────────────────────

// ShoppingCart lists the recipes in the current user's shopping cart.
func (c *Client) ShoppingCart(ctx context.Context) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := c.Do(ctx, http.MethodGet, "/recipes/shopping-cart/", nil, nil, &out)
	return out, err
}

// AddToCart puts a recipe in the shopping cart and returns it.
func (c *Client) AddToCart(ctx context.Context, id int) (domain.Recipe, error) {
	var r domain.Recipe
	err := c.Do(ctx, http.MethodPost, recipePath(id, "shopping_cart"), nil, nil, &r)
	return r, err
}

// RemoveFromCart takes a recipe out of the shopping cart.
func (c *Client) RemoveFromCart(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, recipePath(id, "shopping_cart"), nil, nil, nil)
}

// DownloadShoppingCart fetches the aggregated ingredient list as a file.
func (c *Client) DownloadShoppingCart(ctx context.Context) (domain.ShoppingDocument, error) {
	resp, err := c.do(ctx, http.MethodGet, "/recipes/download_shopping_cart/", nil, nil)
	if err != nil {
		return domain.ShoppingDocument{}, err
	}
	doc := domain.ShoppingDocument{
		Filename:    DefaultShoppingFilename,
		ContentType: resp.header.Get("Content-Type"),
		Body:        resp.body,
	}
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			doc.Filename = safeFilename(params["filename"])
		}
	}
	return doc, nil
}

// DefaultShoppingFilename names the download when the service suggests
// nothing usable.
const DefaultShoppingFilename = "shopping_list.txt"

// safeFilename keeps only the last element of a suggested name, so a
// download is always written into the chosen directory. Backslashes count
// as separators too.
func safeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case "", ".", "..", "/":
		return DefaultShoppingFilename
	}
	return base
}

// ── Subscriptions ────────────────────────────────────────────────

// Subscriptions lists one page of the authors the current user follows.
func (c *Client) Subscriptions(ctx context.Context, q domain.SubscriptionQuery) (domain.SubscriptionPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.RecipesLimit > 0 {
		v.Set("recipes_limit", strconv.Itoa(q.RecipesLimit))
	}
	var page domain.SubscriptionPage
	err := c.Do(ctx, http.MethodGet, "/users/subscriptions/", nil, v, &page)
	return page, err
}

// Subscribe follows an author.
func (c *Client) Subscribe(ctx context.Context, userID int) (domain.Subscription, error) {
	var s domain.Subscription
	err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/subscribe/", userID), nil, nil, &s)
	return s, err
}

// Unsubscribe stops following an author.
func (c *Client) Unsubscribe(ctx context.Context, userID int) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d/subscribe/", userID), nil, nil, nil)
}
