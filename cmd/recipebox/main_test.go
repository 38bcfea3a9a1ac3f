package main

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/recipebox/internal/apitest"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	srv *apitest.Server
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer(logger.New(logger.LevelOff, nil))
	t.Cleanup(srv.Close)
	return &harness{srv: srv, dir: t.TempDir()}
}

// run executes one recipebox invocation. The token lives in a file under
// the harness directory, so sessions carry over between runs.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return h.runWithInput(t, strings.NewReader(""), args...)
}

func (h *harness) runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(in)
	root.SetArgs(append([]string{
		"--config", filepath.Join(h.dir, "missing.yaml"),
		"--api-url", h.srv.URL(),
		"--token-store", "file",
		"--token-path", filepath.Join(h.dir, "token.json"),
		"--quiet",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) login(t *testing.T, u apitest.SeedUser) {
	t.Helper()
	out, err := h.run(t, "login", "--email", u.Profile.Email, "--password", u.Password)
	require.NoError(t, err, out)
}

func TestLoginWhoAmILogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "--email", "a@b.com", "--password", "x")
	require.NoError(t, err)
	assert.Equal(t, "signed in as Gus (a@b.com)\n", out)

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Gus <a@b.com> @guest, 0 in cart\n", out)

	out, err = h.run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "signed out\n", out)

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestLoginReadsPasswordFromInput(t *testing.T) {
	h := newHarness(t)

	out, err := h.runWithInput(t, strings.NewReader("alfredo\n"), "login", "--email", "chef@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as Otto Cook")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "--email", "a@b.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, out, "Unable to log in with provided credentials.")

	_, err = os.Stat(filepath.Join(h.dir, "token.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStaleTokenIsDropped(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Guest)
	h.srv.RevokeTokens()

	out, err := h.run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "register", "--email", "new@example.com", "--username", "newbie",
		"--first-name", "New", "--last-name", "Cook", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "registered newbie (#3)")

	out, err = h.run(t, "register", "--email", "a@b.com", "--username", "dup", "--password", "secret123")
	require.Error(t, err)
	assert.Contains(t, out, "user with this email address already exists.")
}

func TestRecipesList(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "recipes", "list", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "page 2/3")
	assert.Contains(t, out, "13 total")
	assert.Contains(t, out, "Weeknight dish #7")
	assert.Contains(t, out, "Vegetable Stir Fry")
	assert.NotContains(t, out, "Chicken Alfredo")

	out, err = h.run(t, "recipes", "list", "--page", "9")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid page.")
}

func TestRecipesGet(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "recipes", "get", "1", "--markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Chicken Alfredo\n"), out)
	assert.Contains(t, out, "- garlic: 4 cloves")

	_, err = h.run(t, "recipes", "get", "abc")
	assert.ErrorContains(t, err, `invalid recipe id "abc"`)
}

func TestRecipeLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Chef)

	out, err := h.run(t, "recipes", "create", "--name", "Rice Bowl", "--text", "Steam the rice.",
		"--cooking-time", "20", "--tag", "2", "--ingredient", "10:150")
	require.NoError(t, err, out)
	assert.Equal(t, "created #14 Rice Bowl\n", out)

	out, err = h.run(t, "recipes", "update", "14", "--name", "Big Rice Bowl")
	require.NoError(t, err, out)
	assert.Equal(t, "updated #14 Big Rice Bowl\n", out)

	out, err = h.run(t, "recipes", "delete", "14")
	require.NoError(t, err, out)
	assert.Equal(t, "deleted #14\n", out)

	out, err = h.run(t, "recipes", "delete", "2")
	require.Error(t, err)
	assert.Contains(t, out, "status 403")
}

func TestCreateNeedsName(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Chef)

	out, err := h.run(t, "recipes", "create", "--ingredient", "10:150", "--cooking-time", "5")
	require.Error(t, err)
	assert.Contains(t, out, "name")
	assert.Empty(t, countPosts(h.srv, "/api/recipes/"))
}

func countPosts(srv *apitest.Server, path string) []apitest.RecordedRequest {
	var out []apitest.RecordedRequest
	for _, r := range srv.Requests() {
		if r.Method == "POST" && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func TestFavorites(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Guest)

	out, err := h.run(t, "favorites", "add", "1")
	require.NoError(t, err)
	assert.Equal(t, "★ Chicken Alfredo added to favorites\n", out)

	out, err = h.run(t, "favorites", "add", "1")
	require.Error(t, err)
	assert.Contains(t, out, "Recipe is already in favorites.")

	out, err = h.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Chicken Alfredo")

	out, err = h.run(t, "favorites", "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, "#1 removed from favorites\n", out)

	out, err = h.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(nothing here)")
}

func TestCartDownloadAndExport(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Guest)

	for _, id := range []string{"1", "2"} {
		_, err := h.run(t, "cart", "add", id)
		require.NoError(t, err)
	}

	out, err := h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "2 in cart")

	path := filepath.Join(h.dir, "list.txt")
	out, err = h.run(t, "cart", "download", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Shopping List\n"))
	assert.Contains(t, string(body), "garlic - 7 cloves")

	exported, err := h.run(t, "cart", "export")
	require.NoError(t, err)
	assert.Equal(t, string(body), exported)

	out, err = h.run(t, "cart", "remove", "2")
	require.NoError(t, err)
	assert.Equal(t, "#2 removed from the cart\n", out)

	out, err = h.run(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart · 1 recipes")
}

func TestCartNeedsLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "cart", "list")
	require.Error(t, err)
	assert.Contains(t, out, "Authentication credentials were not provided.")
}

func TestSubscriptions(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.Guest)

	out, err := h.run(t, "subscriptions", "add", "1")
	require.NoError(t, err)
	assert.Equal(t, "following Otto Cook\n", out)

	out, err = h.run(t, "subscriptions", "list", "--recipes-limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Otto Cook")
	assert.Contains(t, out, "12 recipes")

	out, err = h.run(t, "subscriptions", "add", "2")
	require.Error(t, err)
	assert.Contains(t, out, "You cannot subscribe to yourself.")

	out, err = h.run(t, "subscriptions", "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, "unfollowed #1\n", out)
}

func TestParseIngredient(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.IngredientRef
		wantErr bool
	}{
		{"10:150", domain.IngredientRef{ID: 10, Amount: 150}, false},
		{"10", domain.IngredientRef{}, true},
		{"x:1", domain.IngredientRef{}, true},
		{"1:y", domain.IngredientRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIngredient(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageDataURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dish.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	uri, err := imageDataURI(path)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("png")), uri)

	_, err = imageDataURI(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "missing.yaml")

	out, err := h.run(t, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "base_url: "+h.srv.URL())
	assert.Contains(t, string(body), "page_size: 6")
	assert.Contains(t, string(body), "recipes_limit: 3")

	_, err = h.run(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = h.run(t, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestBrowseSettingsSizePages(t *testing.T) {
	h := newHarness(t)
	cfg := "browse:\n  page_size: 12\n  recipes_limit: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "missing.yaml"), []byte(cfg), 0o600))

	out, err := h.run(t, "recipes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1/2")
	assert.Contains(t, out, "Weeknight dish #7")

	var sawLimit bool
	for _, r := range h.srv.Requests() {
		if r.Path == "/api/recipes/" && strings.Contains(r.Query, "limit=12") {
			sawLimit = true
		}
	}
	assert.True(t, sawLimit, "list request carries the configured page size")
}
