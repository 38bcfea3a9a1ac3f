package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hammamikhairi/recipebox/internal/conversation"
	"github.com/hammamikhairi/recipebox/internal/display"
	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/engine"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// interactive runs the prompt until the user quits.
func (a *app) interactive(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := a.engine.Store()
	ui := display.NewUI(store)
	notifier := conversation.NewCLINotifier(a.log, ui.Printf)

	// Failed requests surface through the store, so the prompt reports them
	// from there rather than from each handler.
	stop := conversation.NewErrorReporter(notifier, a.log).Watch(store)
	defer stop()

	repl := &cliApp{
		engine:   a.engine,
		parser:   conversation.NewKeywordParser(a.log),
		notifier: notifier,
		log:      a.log,
		ui:       ui,
	}

	fmt.Println(display.RenderBanner(a.cfg.API.BaseURL))
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		repl.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	if err := ui.Run(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

type cliApp struct {
	engine   *engine.Engine
	parser   domain.IntentParser
	notifier domain.Notifier
	log      *logger.Logger
	ui       *display.UI
}

func (a *cliApp) run(ctx context.Context) {
	status, err := a.engine.Bootstrap(ctx)
	if err != nil {
		a.log.Warn("bootstrap: %v", err)
	}
	if status == domain.SessionAuthenticated {
		a.say(ctx, "Welcome back, %s.", a.engine.Store().State().Auth.User.DisplayName())
	} else {
		a.ui.PrintHint(`Browsing as a guest. Run "recipebox login" to save favorites and shop.`)
	}
	a.showPage(ctx, 1)

	uiCh := a.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case <-a.ui.QuitChan():
			return
		case in, ok := <-uiCh:
			if !ok {
				return
			}
			input = strings.TrimSpace(in)
		}
		if input == "" {
			continue
		}

		intent, err := a.parser.Parse(ctx, input)
		if errors.Is(err, conversation.ErrMissingID) {
			a.ui.PrintHint(fmt.Sprintf("%s needs a number, e.g. %q", intent.Type, strings.Fields(input)[0]+" 3"))
			continue
		}
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}

		a.log.Debug("intent: %s (id=%d)", intent.Type, intent.ID)
		if !a.handleIntent(ctx, intent) {
			return
		}
	}
}

// handleIntent runs one command. It returns false when the prompt should
// close.
func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentListRecipes:
		a.showPage(ctx, a.engine.Store().State().Recipes.CurrentPage)
	case domain.IntentPage:
		a.showPage(ctx, intent.ID)
	case domain.IntentNextPage:
		s := a.engine.Store().State().Recipes
		if s.CurrentPage >= s.TotalPages {
			a.ui.PrintHint("Already on the last page.")
			break
		}
		a.showPage(ctx, s.CurrentPage+1)
	case domain.IntentPrevPage:
		s := a.engine.Store().State().Recipes
		if s.CurrentPage <= 1 {
			a.ui.PrintHint("Already on the first page.")
			break
		}
		a.showPage(ctx, s.CurrentPage-1)
	case domain.IntentShowRecipe:
		if r, err := a.engine.GetRecipe(ctx, intent.ID); err == nil {
			a.ui.PrintRecipe(r)
		}
	case domain.IntentFavorite:
		if r, err := a.engine.AddToFavorites(ctx, intent.ID); err == nil {
			a.say(ctx, "★ %s added to favorites.", r.Name)
		}
	case domain.IntentUnfavorite:
		if err := a.engine.RemoveFromFavorites(ctx, intent.ID); err == nil {
			a.say(ctx, "#%d removed from favorites.", intent.ID)
		}
	case domain.IntentListFavorites:
		if items, err := a.engine.GetFavorites(ctx); err == nil {
			a.ui.PrintRecipes("Favorites", items)
		}
	case domain.IntentCartAdd:
		if r, err := a.engine.AddToShoppingList(ctx, intent.ID); err == nil {
			a.say(ctx, "%s added to the cart.", r.Name)
		}
	case domain.IntentCartRemove:
		if err := a.engine.RemoveFromShoppingList(ctx, intent.ID); err == nil {
			a.say(ctx, "#%d removed from the cart.", intent.ID)
		}
	case domain.IntentListCart:
		if items, err := a.engine.GetShoppingList(ctx); err == nil {
			a.ui.PrintRecipes(fmt.Sprintf("Cart · %d recipes", len(items)), items)
		}
	case domain.IntentDownloadCart:
		a.downloadCart(ctx)
	case domain.IntentSubscribe:
		if sub, err := a.engine.Subscribe(ctx, intent.ID); err == nil {
			a.say(ctx, "Following %s.", sub.DisplayName())
		}
	case domain.IntentUnsubscribe:
		if err := a.engine.Unsubscribe(ctx, intent.ID); err == nil {
			a.say(ctx, "Unfollowed #%d.", intent.ID)
		}
	case domain.IntentListSubscriptions:
		if page, err := a.engine.GetSubscriptions(ctx, domain.SubscriptionQuery{}); err == nil {
			a.ui.PrintSubscriptions("Following", page.Results)
		}
	case domain.IntentDeleteRecipe:
		if err := a.engine.DeleteRecipe(ctx, intent.ID); err == nil {
			a.say(ctx, "Deleted #%d.", intent.ID)
		}
	case domain.IntentWhoAmI:
		a.whoAmI()
	case domain.IntentLogout:
		if err := a.engine.Logout(ctx); err != nil {
			a.log.Warn("logout: %v", err)
		}
		a.say(ctx, "Signed out.")
	case domain.IntentRefresh:
		if err := a.engine.Refresh(ctx); err == nil {
			a.ui.PrintHint("Refreshed.")
		}
	case domain.IntentQuit:
		a.ui.PrintHint("Bye.")
		return false
	default:
		a.ui.PrintHint(fmt.Sprintf("Didn't catch %q. Type 'help' for commands.", intent.Raw))
	}
	return true
}

func (a *cliApp) say(ctx context.Context, format string, args ...any) {
	if err := a.notifier.Notify(ctx, fmt.Sprintf(format, args...)); err != nil {
		a.log.Warn("notify: %v", err)
	}
}

func (a *cliApp) showPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	res, err := a.engine.GetRecipes(ctx, domain.RecipeQuery{Page: page})
	if err != nil {
		return
	}
	s := a.engine.Store().State().Recipes
	a.ui.PrintRecipes(fmt.Sprintf("Recipes · page %d/%d", s.CurrentPage, s.TotalPages), res.Results)
}

func (a *cliApp) downloadCart(ctx context.Context) {
	doc, err := a.engine.DownloadShoppingList(ctx)
	if err != nil {
		return
	}
	if err := os.WriteFile(doc.Filename, doc.Body, 0o644); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Could not save %s: %v", doc.Filename, err))
		return
	}
	a.say(ctx, "Saved the shopping list to %s.", doc.Filename)
}

func (a *cliApp) whoAmI() {
	s := a.engine.Store().State()
	if s.Auth.User == nil {
		a.ui.PrintHint(`Not signed in. Run "recipebox login".`)
		return
	}
	u := s.Auth.User
	a.ui.PrintInfo(fmt.Sprintf("%s <%s> @%s, %d in cart", u.DisplayName(), u.Email, u.Username, s.ShoppingList.CartCount))
}

func (a *cliApp) showHelp() {
	for _, line := range strings.Split(strings.TrimRight(conversation.Usage, "\n"), "\n") {
		a.ui.PrintHint(line)
	}
}
