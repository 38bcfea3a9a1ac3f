// Package conversation turns prompt input into intents and reports store
// errors back to the user.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// ErrMissingID is returned when a command needs a number and got none.
var ErrMissingID = errors.New("missing numeric argument")

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches prompt input against fixed command patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

// patternRule matches a command. For intents that take a number, the last
// capture group holds the argument, and may be empty.
type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

const arg = `(?:\s+(\S+))?$`

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(list|recipes|ls)$`), domain.IntentListRecipes},
		{regexp.MustCompile(`(?i)^page` + arg), domain.IntentPage},
		{regexp.MustCompile(`(?i)^(next|n)$`), domain.IntentNextPage},
		{regexp.MustCompile(`(?i)^(prev|previous|p|back)$`), domain.IntentPrevPage},
		{regexp.MustCompile(`(?i)^(show|open|view)` + arg), domain.IntentShowRecipe},
		{regexp.MustCompile(`(?i)^(fav|favorite|star)` + arg), domain.IntentFavorite},
		{regexp.MustCompile(`(?i)^(unfav|unfavorite|unstar)` + arg), domain.IntentUnfavorite},
		{regexp.MustCompile(`(?i)^(favorites|favs)$`), domain.IntentListFavorites},
		{regexp.MustCompile(`(?i)^cart\s+add` + arg), domain.IntentCartAdd},
		{regexp.MustCompile(`(?i)^cart\s+(rm|remove|del)` + arg), domain.IntentCartRemove},
		{regexp.MustCompile(`(?i)^cart\s+(download|dl|export)$`), domain.IntentDownloadCart},
		{regexp.MustCompile(`(?i)^(cart|basket)$`), domain.IntentListCart},
		{regexp.MustCompile(`(?i)^(follow|subscribe)` + arg), domain.IntentSubscribe},
		{regexp.MustCompile(`(?i)^(unfollow|unsubscribe)` + arg), domain.IntentUnsubscribe},
		{regexp.MustCompile(`(?i)^(following|subscriptions|subs)$`), domain.IntentListSubscriptions},
		{regexp.MustCompile(`(?i)^(delete|del)` + arg), domain.IntentDeleteRecipe},
		{regexp.MustCompile(`(?i)^(whoami|me)$`), domain.IntentWhoAmI},
		{regexp.MustCompile(`(?i)^(logout|signout|sign out)$`), domain.IntentLogout},
		{regexp.MustCompile(`(?i)^(refresh|reload|r)$`), domain.IntentRefresh},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts prompt input into an intent. A bare number opens that
// recipe. Commands that need a number and lack a valid one return the
// intent together with ErrMissingID.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.Join(strings.Fields(input), " ")
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	if id, err := strconv.Atoi(trimmed); err == nil && id > 0 {
		return &domain.Intent{Type: domain.IntentShowRecipe, ID: id, Raw: trimmed}, nil
	}

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)

		intent := &domain.Intent{Type: rule.intent, Raw: trimmed}
		if !rule.intent.NeedsID() {
			return intent, nil
		}
		raw := m[len(m)-1]
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return intent, fmt.Errorf("%s: %w", rule.intent, ErrMissingID)
		}
		intent.ID = id
		return intent, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Raw: trimmed}, nil
}

// Usage is the command reference printed by "help".
const Usage = `Commands:
  list | next | prev | page N     browse recipes
  show N  (or just N)             open a recipe
  fav N | unfav N | favorites     manage favorites
  cart | cart add N | cart rm N   manage the shopping cart
  cart download                   save the shopping list
  follow N | unfollow N | following
  delete N                        delete one of your recipes
  whoami | logout | refresh
  help | quit`
