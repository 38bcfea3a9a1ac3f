package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/recipebox/internal/display"
	"github.com/hammamikhairi/recipebox/internal/domain"
)

func newRecipesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe"},
		Short:   "List, show and edit recipes",
	}
	cmd.AddCommand(
		newRecipesListCmd(a),
		newRecipesGetCmd(a),
		newRecipesCreateCmd(a),
		newRecipesUpdateCmd(a),
		newRecipesDeleteCmd(a),
	)
	return cmd
}

func newRecipesListCmd(a *app) *cobra.Command {
	var q domain.RecipeQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of recipes",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			page, err := a.engine.GetRecipes(ctx, q)
			if err != nil {
				return err
			}
			s := a.engine.Store().State().Recipes
			heading := fmt.Sprintf("Recipes · page %d/%d · %d total", s.CurrentPage, s.TotalPages, page.Count)
			fmt.Fprintln(cmd.OutOrStdout(), display.RecipeList(heading, page.Results))
			return nil
		}),
	}
	f := cmd.Flags()
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 0, "recipes per page (service default when 0)")
	f.IntVar(&q.Author, "author", 0, "only recipes by this user id")
	f.StringSliceVar(&q.Tags, "tag", nil, "only recipes with these tag slugs")
	f.BoolVar(&q.IsFavorited, "favorited", false, "only my favorites")
	f.BoolVar(&q.IsInShoppingCart, "in-cart", false, "only recipes in my cart")
	return cmd
}

func newRecipesGetCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("recipe", args[0])
			if err != nil {
				return err
			}
			r, err := a.engine.GetRecipe(ctx, id)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), display.RecipeMarkdown(r))
				return nil
			}
			out, err := display.NewRecipeRenderer(outputWidth() - 4).Render(r)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "print plain markdown instead of styled output")
	return cmd
}

// recipeFlags collects the editable recipe fields.
type recipeFlags struct {
	name        string
	text        string
	image       string
	cookingTime int
	tags        []int
	ingredients []string
}

func (rf *recipeFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&rf.name, "name", "", "recipe name")
	f.StringVar(&rf.text, "text", "", "method, as plain text or markdown")
	f.StringVar(&rf.image, "image", "", "path to a picture of the dish")
	f.IntVar(&rf.cookingTime, "cooking-time", 0, "cooking time in minutes")
	f.IntSliceVar(&rf.tags, "tag", nil, "tag ids")
	f.StringSliceVar(&rf.ingredients, "ingredient", nil, "ingredient as ID:AMOUNT, repeatable")
}

// input converts the flags into a request body. Unset fields stay empty so
// an update only sends what changed.
func (rf *recipeFlags) input() (domain.RecipeInput, error) {
	in := domain.RecipeInput{
		Name:        rf.name,
		Text:        rf.text,
		CookingTime: rf.cookingTime,
		Tags:        rf.tags,
	}
	for _, s := range rf.ingredients {
		ref, err := parseIngredient(s)
		if err != nil {
			return in, err
		}
		in.Ingredients = append(in.Ingredients, ref)
	}
	if rf.image != "" {
		uri, err := imageDataURI(rf.image)
		if err != nil {
			return in, err
		}
		in.Image = uri
	}
	return in, nil
}

func parseIngredient(s string) (domain.IngredientRef, error) {
	idStr, amountStr, ok := strings.Cut(s, ":")
	if !ok {
		return domain.IngredientRef{}, fmt.Errorf("ingredient %q: want ID:AMOUNT", s)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return domain.IngredientRef{}, fmt.Errorf("ingredient %q: bad id: %w", s, err)
	}
	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return domain.IngredientRef{}, fmt.Errorf("ingredient %q: bad amount: %w", s, err)
	}
	return domain.IngredientRef{ID: id, Amount: amount}, nil
}

// imageDataURI reads path as a base64 data URI, the form the service
// accepts for recipe pictures.
func imageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func newRecipesCreateCmd(a *app) *cobra.Command {
	var rf recipeFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new recipe",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			in, err := rf.input()
			if err != nil {
				return err
			}
			r, err := a.engine.CreateRecipe(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created #%d %s\n", r.ID, r.Name)
			return nil
		}),
	}
	rf.bind(cmd)
	return cmd
}

func newRecipesUpdateCmd(a *app) *cobra.Command {
	var rf recipeFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit one of your recipes",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("recipe", args[0])
			if err != nil {
				return err
			}
			in, err := rf.input()
			if err != nil {
				return err
			}
			r, err := a.engine.UpdateRecipe(ctx, id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated #%d %s\n", r.ID, r.Name)
			return nil
		}),
	}
	rf.bind(cmd)
	return cmd
}

func newRecipesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete one of your recipes",
		Args:    cobra.ExactArgs(1),
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("recipe", args[0])
			if err != nil {
				return err
			}
			if err := a.engine.DeleteRecipe(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
			return nil
		}),
	}
}

func outputWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
