package state

import "github.com/hammamikhairi/recipebox/internal/domain"

// Every helper here returns a freshly allocated slice when it changes
// anything, so earlier snapshots never see the edit.

func recipeID(r domain.Recipe) int             { return r.ID }
func subscriptionID(s domain.Subscription) int { return s.ID }

func indexBy[T any](items []T, id int, key func(T) int) int {
	for i := range items {
		if key(items[i]) == id {
			return i
		}
	}
	return -1
}

// prepend returns [v, items...].
func prepend[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, v)
	return append(out, items...)
}

// upsertBy appends v, or replaces the entry with the same id in place.
// added reports whether the list grew.
func upsertBy[T any](items []T, v T, key func(T) int) (out []T, added bool) {
	if i := indexBy(items, key(v), key); i >= 0 {
		out = make([]T, len(items))
		copy(out, items)
		out[i] = v
		return out, false
	}
	out = make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, v), true
}

// replaceBy swaps the entry whose id matches v. found is false, and items
// is returned untouched, when there is no match.
func replaceBy[T any](items []T, v T, key func(T) int) (out []T, found bool) {
	i := indexBy(items, key(v), key)
	if i < 0 {
		return items, false
	}
	out = make([]T, len(items))
	copy(out, items)
	out[i] = v
	return out, true
}

// removeBy drops every entry with the given id.
func removeBy[T any](items []T, id int, key func(T) int) (out []T, found bool) {
	if indexBy(items, id, key) < 0 {
		return items, false
	}
	out = make([]T, 0, len(items)-1)
	for _, it := range items {
		if key(it) != id {
			out = append(out, it)
		}
	}
	return out, true
}

// updateRecipes applies fn to a copy of every recipe matching pred.
func updateRecipes(items []domain.Recipe, pred func(domain.Recipe) bool, fn func(*domain.Recipe)) []domain.Recipe {
	var out []domain.Recipe
	for i, r := range items {
		if !pred(r) {
			continue
		}
		if out == nil {
			out = make([]domain.Recipe, len(items))
			copy(out, items)
		}
		fn(&out[i])
	}
	if out == nil {
		return items
	}
	return out
}

// updateCurrent applies fn to a copy of cur when pred matches.
func updateCurrent(cur *domain.Recipe, pred func(domain.Recipe) bool, fn func(*domain.Recipe)) *domain.Recipe {
	if cur == nil || !pred(*cur) {
		return cur
	}
	c := *cur
	fn(&c)
	return &c
}

// Contains reports whether a recipe with the given id is in items.
func Contains(items []domain.Recipe, id int) bool {
	return indexBy(items, id, recipeID) >= 0
}
