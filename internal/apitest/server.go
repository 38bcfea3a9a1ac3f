// Package apitest provides an in-memory fake of the recipe service for
// tests. It speaks the same JSON shapes and error bodies as the real API
// and records every request it receives.
package apitest

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/export"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// RecordedRequest is what the server saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

type account struct {
	profile   domain.UserProfile
	password  string
	favorites map[int]bool
	cart      map[int]bool
	follows   map[int]bool
}

func newAccount(p domain.UserProfile, password string) *account {
	return &account{
		profile:   p,
		password:  password,
		favorites: make(map[int]bool),
		cart:      make(map[int]bool),
		follows:   make(map[int]bool),
	}
}

// Server is a fake recipe service. Safe for concurrent requests.
type Server struct {
	mu           sync.RWMutex
	users        map[int]*account
	tokens       map[string]int
	recipes      map[int]*domain.Recipe
	nextRecipeID int
	nextUserID   int
	requests     []RecordedRequest
	hook         func(*http.Request)
	log          *logger.Logger

	srv *httptest.Server
}

// NewServer starts a seeded fake service. Call Close when done.
func NewServer(log *logger.Logger) *Server {
	s := &Server{
		users:   make(map[int]*account),
		tokens:  make(map[string]int),
		recipes: make(map[int]*domain.Recipe),
		log:     log,
	}
	s.seed()
	s.srv = httptest.NewServer(s.routes())
	return s
}

// URL is the API root to hand to api.NewClient.
func (s *Server) URL() string { return s.srv.URL + "/api" }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// OnRequest installs a hook run at the start of every request, outside
// the server lock. Tests use it to delay or reorder responses.
func (s *Server) OnRequest(fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// IssueToken logs a seeded user in directly and returns the token.
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(userID)
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]int)
}

func (s *Server) issueToken(userID int) string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	tok := fmt.Sprintf("%x", b)
	s.tokens[tok] = userID
	return tok
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/token/login/{$}", s.login)
	mux.HandleFunc("POST /api/auth/token/logout/{$}", s.authed(s.logout))
	mux.HandleFunc("POST /api/users/{$}", s.register)
	mux.HandleFunc("GET /api/users/me/{$}", s.authed(s.me))
	mux.HandleFunc("GET /api/users/subscriptions/{$}", s.authed(s.subscriptions))
	mux.HandleFunc("POST /api/users/{id}/subscribe/{$}", s.authed(s.subscribe))
	mux.HandleFunc("DELETE /api/users/{id}/subscribe/{$}", s.authed(s.unsubscribe))

	mux.HandleFunc("GET /api/recipes/{$}", s.listRecipes)
	mux.HandleFunc("POST /api/recipes/{$}", s.authed(s.createRecipe))
	mux.HandleFunc("GET /api/recipes/{id}/{$}", s.getRecipe)
	mux.HandleFunc("PATCH /api/recipes/{id}/{$}", s.authed(s.updateRecipe))
	mux.HandleFunc("DELETE /api/recipes/{id}/{$}", s.authed(s.deleteRecipe))

	mux.HandleFunc("GET /api/recipes/favorites/{$}", s.authed(s.listRelation(func(a *account) map[int]bool { return a.favorites })))
	mux.HandleFunc("POST /api/recipes/{id}/favorite/{$}", s.authed(s.addRelation("favorites", func(a *account) map[int]bool { return a.favorites })))
	mux.HandleFunc("DELETE /api/recipes/{id}/favorite/{$}", s.authed(s.removeRelation("favorites", func(a *account) map[int]bool { return a.favorites })))

	mux.HandleFunc("GET /api/recipes/shopping-cart/{$}", s.authed(s.listRelation(func(a *account) map[int]bool { return a.cart })))
	mux.HandleFunc("POST /api/recipes/{id}/shopping_cart/{$}", s.authed(s.addRelation("shopping cart", func(a *account) map[int]bool { return a.cart })))
	mux.HandleFunc("DELETE /api/recipes/{id}/shopping_cart/{$}", s.authed(s.removeRelation("shopping cart", func(a *account) map[int]bool { return a.cart })))
	mux.HandleFunc("GET /api/recipes/download_shopping_cart/{$}", s.authed(s.download))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		hook := s.hook
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		s.log.Debug("apitest: %s %s?%s", r.Method, r.URL.Path, r.URL.RawQuery)
		mux.ServeHTTP(w, r)
	})
}

// ── helpers ──────────────────────────────────────────────────────

type authedHandler func(w http.ResponseWriter, r *http.Request, me *account)

// authed resolves the token. The account pointer is only valid while the
// handler holds s.mu, which each handler takes itself.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := s.caller(r)
		if me == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		h(w, r, me)
	}
}

func (s *Server) caller(r *http.Request) *account {
	h := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(h, "Token ")
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[tok]
	if !ok {
		return nil
	}
	return s.users[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func fieldErrors(w http.ResponseWriter, fields map[string]string) {
	body := make(map[string][]string, len(fields))
	for k, v := range fields {
		body[k] = []string{v}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil
}

// view renders a recipe for the given viewer (nil for anonymous).
// Caller holds s.mu.
func (s *Server) view(r *domain.Recipe, me *account) domain.Recipe {
	out := *r
	out.Author = s.users[r.Author.ID].profile
	if me != nil {
		out.IsFavorited = me.favorites[r.ID]
		out.IsInShoppingCart = me.cart[r.ID]
		out.Author.IsSubscribed = me.follows[r.Author.ID]
	}
	return out
}

// ── auth ─────────────────────────────────────────────────────────

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		fieldErrors(w, map[string]string{"non_field_errors": "Malformed request."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.profile.Email, creds.Email) && u.password == creds.Password {
			writeJSON(w, http.StatusOK, domain.AuthToken{Token: s.issueToken(id)})
			return
		}
	}
	fieldErrors(w, map[string]string{"non_field_errors": "Unable to log in with provided credentials."})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, me *account) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		fieldErrors(w, map[string]string{"non_field_errors": "Malformed request."})
		return
	}
	missing := map[string]string{}
	for field, v := range map[string]string{"email": reg.Email, "username": reg.Username, "password": reg.Password} {
		if v == "" {
			missing[field] = "This field is required."
		}
	}
	if len(missing) > 0 {
		fieldErrors(w, missing)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.profile.Email, reg.Email) {
			fieldErrors(w, map[string]string{"email": "user with this email address already exists."})
			return
		}
		if u.profile.Username == reg.Username {
			fieldErrors(w, map[string]string{"username": "A user with that username already exists."})
			return
		}
	}
	p := domain.UserProfile{
		ID:        s.nextUserID,
		Email:     reg.Email,
		Username:  reg.Username,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	}
	s.nextUserID++
	s.users[p.ID] = newAccount(p, reg.Password)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, me *account) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, me.profile)
}

// ── recipes ──────────────────────────────────────────────────────

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	me := s.caller(r)
	q := r.URL.Query()

	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), domain.PageSize)
	author := atoiDefault(q.Get("author"), 0)
	tags := q["tags"]
	onlyFav := q.Get("is_favorited") == "1"
	onlyCart := q.Get("is_in_shopping_cart") == "1"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Recipe
	for _, rec := range s.recipes {
		if author != 0 && rec.Author.ID != author {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(rec, tags) {
			continue
		}
		if onlyFav && (me == nil || !me.favorites[rec.ID]) {
			continue
		}
		if onlyCart && (me == nil || !me.cart[rec.ID]) {
			continue
		}
		matched = append(matched, s.view(rec, me))
	}
	// Newest first.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	start := (page - 1) * limit
	if page < 1 || (start >= len(matched) && page != 1) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
		return
	}
	end := min(start+limit, len(matched))

	writeJSON(w, http.StatusOK, domain.RecipePage{
		Count:   len(matched),
		Results: append([]domain.Recipe{}, matched[start:end]...),
	})
}

func hasAnyTag(r *domain.Recipe, slugs []string) bool {
	for _, t := range r.Tags {
		for _, s := range slugs {
			if t.Slug == s {
				return true
			}
		}
	}
	return false
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	me := s.caller(r)

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recipes[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, s.view(rec, me))
}

// resolveInput copies a create/update body onto rec and returns field errors.
func resolveInput(in domain.RecipeInput, rec *domain.Recipe) map[string]string {
	errs := map[string]string{}
	if in.Ingredients != nil {
		rec.Ingredients = rec.Ingredients[:0:0]
		for _, ref := range in.Ingredients {
			ing, ok := ingredientCatalog[ref.ID]
			if !ok {
				errs["ingredients"] = fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", ref.ID)
				continue
			}
			if ref.Amount < 1 {
				errs["ingredients"] = "Ensure this value is greater than or equal to 1."
				continue
			}
			ing.Amount = ref.Amount
			rec.Ingredients = append(rec.Ingredients, ing)
		}
	}
	if in.Tags != nil {
		rec.Tags = rec.Tags[:0:0]
		for _, id := range in.Tags {
			tag, ok := tagCatalog[id]
			if !ok {
				errs["tags"] = fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
				continue
			}
			rec.Tags = append(rec.Tags, tag)
		}
	}
	if in.Name != "" {
		rec.Name = in.Name
	}
	if in.Text != "" {
		rec.Text = in.Text
	}
	if in.CookingTime != 0 {
		if in.CookingTime < 1 {
			errs["cooking_time"] = "Ensure this value is greater than or equal to 1."
		}
		rec.CookingTime = in.CookingTime
	}
	if in.Image != "" {
		rec.Image = fmt.Sprintf("/media/recipes/images/%d.png", rec.ID)
	}
	return errs
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request, me *account) {
	var in domain.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fieldErrors(w, map[string]string{"non_field_errors": "Malformed request."})
		return
	}
	missing := map[string]string{}
	if in.Name == "" {
		missing["name"] = "This field is required."
	}
	if len(in.Ingredients) == 0 {
		missing["ingredients"] = "This field is required."
	}
	if in.CookingTime == 0 {
		missing["cooking_time"] = "This field is required."
	}
	if len(missing) > 0 {
		fieldErrors(w, missing)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &domain.Recipe{ID: s.nextRecipeID, Author: me.profile}
	if errs := resolveInput(in, rec); len(errs) > 0 {
		fieldErrors(w, errs)
		return
	}
	s.nextRecipeID++
	s.recipes[rec.ID] = rec
	writeJSON(w, http.StatusCreated, s.view(rec, me))
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var in domain.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fieldErrors(w, map[string]string{"non_field_errors": "Malformed request."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recipes[id]
	if !ok {
		notFound(w)
		return
	}
	if rec.Author.ID != me.profile.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	updated := *rec
	if errs := resolveInput(in, &updated); len(errs) > 0 {
		fieldErrors(w, errs)
		return
	}
	s.recipes[id] = &updated
	writeJSON(w, http.StatusOK, s.view(&updated, me))
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recipes[id]
	if !ok {
		notFound(w)
		return
	}
	if rec.Author.ID != me.profile.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	delete(s.recipes, id)
	for _, u := range s.users {
		delete(u.favorites, id)
		delete(u.cart, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── favorites / shopping cart ────────────────────────────────────

type relation func(*account) map[int]bool

func (s *Server) listRelation(rel relation) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, me *account) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		out := []domain.Recipe{}
		for id := range rel(me) {
			if rec, ok := s.recipes[id]; ok {
				out = append(out, s.view(rec, me))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) addRelation(name string, rel relation) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, me *account) {
		id, ok := pathID(r)
		if !ok {
			notFound(w)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		rec, ok := s.recipes[id]
		if !ok {
			notFound(w)
			return
		}
		set := rel(me)
		if set[id] {
			fieldErrors(w, map[string]string{"errors": fmt.Sprintf("Recipe is already in %s.", name)})
			return
		}
		set[id] = true
		writeJSON(w, http.StatusCreated, s.view(rec, me))
	}
}

func (s *Server) removeRelation(name string, rel relation) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, me *account) {
		id, ok := pathID(r)
		if !ok {
			notFound(w)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		set := rel(me)
		if !set[id] {
			fieldErrors(w, map[string]string{"errors": fmt.Sprintf("Recipe is not in %s.", name)})
			return
		}
		delete(set, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, me *account) {
	s.mu.RLock()
	var picked []domain.Recipe
	for id := range me.cart {
		if rec, ok := s.recipes[id]; ok {
			picked = append(picked, *rec)
		}
	}
	s.mu.RUnlock()

	doc := export.Document(picked)
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	_, _ = w.Write(doc.Body)
}

// ── subscriptions ────────────────────────────────────────────────

// subscription renders an author for the follower. Caller holds s.mu.
func (s *Server) subscription(author *account, me *account, recipesLimit int) domain.Subscription {
	sub := domain.Subscription{UserProfile: author.profile}
	sub.IsSubscribed = me.follows[author.profile.ID]

	var mine []domain.RecipeShort
	for _, rec := range s.recipes {
		if rec.Author.ID == author.profile.ID {
			mine = append(mine, domain.RecipeShort{ID: rec.ID, Name: rec.Name, Image: rec.Image, CookingTime: rec.CookingTime})
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	sub.RecipesCount = len(mine)
	if recipesLimit > 0 && len(mine) > recipesLimit {
		mine = mine[:recipesLimit]
	}
	sub.Recipes = mine
	return sub
}

func (s *Server) subscriptions(w http.ResponseWriter, r *http.Request, me *account) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), domain.PageSize)
	recipesLimit := atoiDefault(q.Get("recipes_limit"), 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Subscription
	for id := range me.follows {
		if u, ok := s.users[id]; ok {
			out = append(out, s.subscription(u, me, recipesLimit))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	start := max((page-1)*limit, 0)
	if start > len(out) {
		start = len(out)
	}
	end := min(start+limit, len(out))
	writeJSON(w, http.StatusOK, domain.SubscriptionPage{
		Count:   len(out),
		Results: append([]domain.Subscription{}, out[start:end]...),
	})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[id]
	if !ok {
		notFound(w)
		return
	}
	if id == me.profile.ID {
		fieldErrors(w, map[string]string{"errors": "You cannot subscribe to yourself."})
		return
	}
	if me.follows[id] {
		fieldErrors(w, map[string]string{"errors": "You are already subscribed to this author."})
		return
	}
	me.follows[id] = true
	writeJSON(w, http.StatusCreated, s.subscription(author, me, 0))
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !me.follows[id] {
		fieldErrors(w, map[string]string{"errors": "You are not subscribed to this author."})
		return
	}
	delete(me.follows, id)
	w.WriteHeader(http.StatusNoContent)
}
