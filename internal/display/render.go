package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hammamikhairi/recipebox/internal/domain"
)

// RecipeRenderer turns a recipe into styled terminal output.
type RecipeRenderer struct {
	md *glamour.TermRenderer
}

// NewRecipeRenderer creates a renderer that wraps at width columns.
func NewRecipeRenderer(width int) *RecipeRenderer {
	if width < 20 {
		width = 20
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &RecipeRenderer{}
	}
	return &RecipeRenderer{md: md}
}

// Render returns the recipe as terminal markdown. Without a working
// glamour renderer it returns the raw markdown.
func (r *RecipeRenderer) Render(rec domain.Recipe) (string, error) {
	src := RecipeMarkdown(rec)
	if r == nil || r.md == nil {
		return src, nil
	}
	out, err := r.md.Render(src)
	if err != nil {
		return "", fmt.Errorf("rendering recipe %d: %w", rec.ID, err)
	}
	return out, nil
}

// RecipeMarkdown lays a recipe out as markdown.
func RecipeMarkdown(r domain.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Name)

	meta := []string{fmt.Sprintf("%d min", r.CookingTime), "by " + r.Author.DisplayName()}
	if len(r.Tags) > 0 {
		names := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			names[i] = t.Name
		}
		meta = append(meta, strings.Join(names, ", "))
	}
	if r.IsFavorited {
		meta = append(meta, "★ favorite")
	}
	if r.IsInShoppingCart {
		meta = append(meta, "in cart")
	}
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))

	b.WriteString("## Ingredients\n\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "- %s: %d %s\n", ing.Name, ing.Amount, ing.MeasurementUnit)
	}

	if r.Text != "" {
		b.WriteString("\n## Method\n\n")
		b.WriteString(strings.TrimSpace(r.Text))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n`#%d`\n", r.ID)
	return b.String()
}
