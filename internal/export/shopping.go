// Package export builds the shopping list document on the client from the
// recipes in the cart, in the same plain-text layout the service produces.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

// Filename is the default name of the exported document.
const Filename = "shopping_list.txt"

// Line is one aggregated ingredient.
type Line struct {
	Name   string
	Unit   string
	Amount int
}

func (l Line) String() string {
	return fmt.Sprintf("%s - %d %s", l.Name, l.Amount, l.Unit)
}

// Aggregate sums ingredient amounts across recipes. Ingredients with the
// same name but different units stay separate. Lines are sorted by name,
// then unit.
func Aggregate(recipes []domain.Recipe) []Line {
	type key struct{ name, unit string }
	totals := make(map[key]int)
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			totals[key{ing.Name, ing.MeasurementUnit}] += ing.Amount
		}
	}

	lines := make([]Line, 0, len(totals))
	for k, amount := range totals {
		lines = append(lines, Line{Name: k.name, Unit: k.unit, Amount: amount})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].Unit < lines[j].Unit
	})
	return lines
}

// Document renders the cart as a "Shopping List" text file.
func Document(recipes []domain.Recipe) domain.ShoppingDocument {
	var b strings.Builder
	b.WriteString("Shopping List\n")
	for _, l := range Aggregate(recipes) {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return domain.ShoppingDocument{
		Filename:    Filename,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(b.String()),
	}
}
