package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/recipebox/internal/display"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/export"
)

// ── Favorites ────────────────────────────────────────────────────

func newFavoritesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"favs"},
		Short:   "Manage favorite recipes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorite recipes",
			Args:  cobra.NoArgs,
			RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
				items, err := a.engine.GetFavorites(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), display.RecipeList("Favorites", items))
				return nil
			}),
		},
		recipeToggleCmd(a, "add ID", "Mark a recipe as favorite", func(ctx context.Context, id int) (string, error) {
			r, err := a.engine.AddToFavorites(ctx, id)
			return fmt.Sprintf("★ %s added to favorites", r.Name), err
		}),
		recipeToggleCmd(a, "remove ID", "Unmark a favorite recipe", func(ctx context.Context, id int) (string, error) {
			return fmt.Sprintf("#%d removed from favorites", id), a.engine.RemoveFromFavorites(ctx, id)
		}),
	)
	return cmd
}

// ── Shopping cart ────────────────────────────────────────────────

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cart",
		Aliases: []string{"shopping-list"},
		Short:   "Manage the shopping cart",
	}

	var downloadOut, exportOut string
	download := &cobra.Command{
		Use:   "download",
		Short: "Save the service's shopping list file",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			doc, err := a.engine.DownloadShoppingList(ctx)
			if err != nil {
				return err
			}
			return writeDocument(cmd, doc, downloadOut)
		}),
	}
	download.Flags().StringVarP(&downloadOut, "out", "o", "", `output file, "-" for stdout (default: the name the service suggests)`)

	exp := &cobra.Command{
		Use:   "export",
		Short: "Build the shopping list locally from the cart",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			items, err := a.engine.GetShoppingList(ctx)
			if err != nil {
				return err
			}
			return writeDocument(cmd, export.Document(items), exportOut)
		}),
	}
	exp.Flags().StringVarP(&exportOut, "out", "o", "-", `output file, "-" for stdout`)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recipes in the cart",
			Args:  cobra.NoArgs,
			RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
				items, err := a.engine.GetShoppingList(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), display.RecipeList(fmt.Sprintf("Cart · %d recipes", len(items)), items))
				return nil
			}),
		},
		recipeToggleCmd(a, "add ID", "Put a recipe in the cart", func(ctx context.Context, id int) (string, error) {
			r, err := a.engine.AddToShoppingList(ctx, id)
			return fmt.Sprintf("%s added to the cart", r.Name), err
		}),
		recipeToggleCmd(a, "remove ID", "Take a recipe out of the cart", func(ctx context.Context, id int) (string, error) {
			return fmt.Sprintf("#%d removed from the cart", id), a.engine.RemoveFromShoppingList(ctx, id)
		}),
		download,
		exp,
	)
	return cmd
}

func writeDocument(cmd *cobra.Command, doc domain.ShoppingDocument, out string) error {
	switch out {
	case "-":
		_, err := cmd.OutOrStdout().Write(doc.Body)
		return err
	case "":
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.Body, 0o644); err != nil {
		return fmt.Errorf("writing shopping list: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", out, len(doc.Body))
	return nil
}

// ── Subscriptions ────────────────────────────────────────────────

func newSubscriptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs", "following"},
		Short:   "Manage followed authors",
	}

	var q domain.SubscriptionQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List followed authors",
		Args:  cobra.NoArgs,
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			page, err := a.engine.GetSubscriptions(ctx, q)
			if err != nil {
				return err
			}
			s := a.engine.Store().State().Subscriptions
			heading := fmt.Sprintf("Following · page %d/%d · %d total", s.CurrentPage, s.TotalPages, page.Count)
			fmt.Fprintln(cmd.OutOrStdout(), display.SubscriptionList(heading, page.Results))
			return nil
		}),
	}
	f := list.Flags()
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 0, "authors per page (service default when 0)")
	f.IntVar(&q.RecipesLimit, "recipes-limit", 0, "recipes previewed per author")

	cmd.AddCommand(
		list,
		userToggleCmd(a, "add USER_ID", "Follow an author", func(ctx context.Context, id int) (string, error) {
			sub, err := a.engine.Subscribe(ctx, id)
			return fmt.Sprintf("following %s", sub.DisplayName()), err
		}),
		userToggleCmd(a, "remove USER_ID", "Stop following an author", func(ctx context.Context, id int) (string, error) {
			return fmt.Sprintf("unfollowed #%d", id), a.engine.Unsubscribe(ctx, id)
		}),
	)
	return cmd
}

// ── Shared ───────────────────────────────────────────────────────

type toggleFunc func(ctx context.Context, id int) (string, error)

func recipeToggleCmd(a *app, use, short string, fn toggleFunc) *cobra.Command {
	return toggleCmd(a, "recipe", use, short, fn)
}

func userToggleCmd(a *app, use, short string, fn toggleFunc) *cobra.Command {
	return toggleCmd(a, "user", use, short, fn)
}

// toggleCmd builds a command that takes one id and prints fn's message.
func toggleCmd(a *app, what, use, short string, fn toggleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.action(true, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID(what, args[0])
			if err != nil {
				return err
			}
			msg, err := fn(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}),
	}
}
