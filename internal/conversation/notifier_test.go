package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/recipebox/internal/logger"
	"github.com/hammamikhairi/recipebox/internal/state"
)

func TestCLINotifierPrints(t *testing.T) {
	var out []string
	n := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		out = append(out, fmt.Sprintf(format, a...))
	})

	require.NoError(t, n.Notify(context.Background(), "saved"))
	require.NoError(t, n.NotifyUrgent(context.Background(), "failed"))
	require.Len(t, out, 2)
	assert.Contains(t, out[0], "saved")
	assert.Contains(t, out[1], "failed")
}

func TestErrorReporterReportsEachErrorOnce(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := state.NewStore(log)

	var got []string
	n := NewCLINotifier(log, func(format string, a ...interface{}) {
		got = append(got, fmt.Sprintf(format, a...))
	})
	unsub := NewErrorReporter(n, log).Watch(store)
	defer unsub()

	seq := store.NextSeq()
	store.Dispatch(state.Pending(state.OpGetRecipes, seq))
	store.Dispatch(state.Rejected(state.OpGetRecipes, seq, "Invalid page."))
	store.Dispatch(state.Action(state.OpClearCurrentRecipe))

	require.Len(t, got, 1)
	assert.True(t, strings.Contains(got[0], "recipes: Invalid page."))

	// Cleared then failing again is a new report.
	store.Dispatch(state.Action(state.OpRecipesClearError))
	seq = store.NextSeq()
	store.Dispatch(state.Pending(state.OpGetRecipes, seq))
	store.Dispatch(state.Rejected(state.OpGetRecipes, seq, "Invalid page."))
	assert.Len(t, got, 2)
}
