package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
	"github.com/hammamikhairi/recipebox/internal/state"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

var (
	infoStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes notifications to the terminal.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s", infoStyle.Render(message))
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s", urgentStyle.Render(message))
	return nil
}

var watchedSlices = []string{
	state.SliceAuth,
	state.SliceRecipes,
	state.SliceFavorites,
	state.SliceShoppingList,
	state.SliceSubscriptions,
}

// ErrorReporter forwards each new slice error to a Notifier once. An
// error is reported again only after it has been cleared or replaced.
type ErrorReporter struct {
	notifier domain.Notifier
	log      *logger.Logger

	mu   sync.Mutex
	last map[string]string
}

// NewErrorReporter creates a reporter. Attach it with Watch.
func NewErrorReporter(n domain.Notifier, log *logger.Logger) *ErrorReporter {
	return &ErrorReporter{notifier: n, log: log, last: make(map[string]string)}
}

// Watch subscribes the reporter to store and returns the unsubscribe func.
func (r *ErrorReporter) Watch(store *state.Store) func() {
	return store.Subscribe(r.observe)
}

func (r *ErrorReporter) observe(s state.State) {
	r.mu.Lock()
	var fresh []string
	for _, slice := range watchedSlices {
		msg := s.Error(slice)
		if msg != "" && msg != r.last[slice] {
			fresh = append(fresh, fmt.Sprintf("%s: %s", slice, msg))
		}
		r.last[slice] = msg
	}
	r.mu.Unlock()

	for _, msg := range fresh {
		if err := r.notifier.NotifyUrgent(context.Background(), msg); err != nil {
			r.log.Warn("reporting error: %v", err)
		}
	}
}
