// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type keeps a status bar and an input prompt at the bottom of
// the terminal and redraws the bar from every store snapshot. Application
// output is printed above the rendered area via Program.Println, so
// concurrent writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/state"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	guestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate of the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const prompt = "recipes> "

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely call
// [UI.Println], [UI.Printf], and read from [UI.InputChan] at any time
// after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	store   *state.Store
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	running atomic.Bool
	done    atomic.Bool
	width   atomic.Int64

	rendererOnce sync.Once
	renderer     *RecipeRenderer
}

// NewUI creates the display for store. Call Run() to start.
func NewUI(store *state.Store) *UI {
	return &UI{
		store:   store,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program is not running, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.running.Load() && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.running.Load() && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintInfo prints a plain informational line.
func (u *UI) PrintInfo(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("recipes") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// PrintRecipes prints a list of recipes with a heading.
func (u *UI) PrintRecipes(heading string, items []domain.Recipe) {
	u.Println(RecipeList(heading, items))
}

// PrintSubscriptions prints followed authors with a heading.
func (u *UI) PrintSubscriptions(heading string, subs []domain.Subscription) {
	u.Println(SubscriptionList(heading, subs))
}

// PrintRecipe prints a recipe rendered as markdown.
func (u *UI) PrintRecipe(r domain.Recipe) {
	u.rendererOnce.Do(func() {
		w := int(u.width.Load())
		if w <= 0 {
			w = termWidth()
		}
		u.renderer = NewRecipeRenderer(w - 4)
	})
	out, err := u.renderer.Render(r)
	if err != nil {
		u.Println(RecipeMarkdown(r))
		return
	}
	u.Println(out)
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// A plain-text prompt keeps the textinput width math correct.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = badgeStyle

	m := model{
		input:   ti,
		spinner: sp,
		snap:    u.store.State(),
		inputCh: u.inputCh,
		readyFn: func() {
			u.running.Store(true)
			close(u.readyCh)
		},
		echoFn:  u.PrintUserInput,
		busyFn:  u.PrintHint,
		widthFn: func(w int) { u.width.Store(int64(w)) },
	}

	u.program = tea.NewProgram(m)

	// Snapshots only flow once the loop is up: Send blocks before that.
	unsubscribe := u.store.Subscribe(func(s state.State) {
		if u.running.Load() && !u.done.Load() {
			u.program.Send(stateMsg(s))
		}
	})
	defer unsubscribe()

	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	input   textinput.Model
	spinner spinner.Model
	snap    state.State
	inputCh chan<- string
	readyFn func()
	echoFn  func(string)
	busyFn  func(string)
	widthFn func(int)
	width   int
}

// busyHint is shown when a line arrives while the input queue is full.
const busyHint = "Still working on earlier commands, try again in a moment."

// stateMsg carries a store snapshot into the event loop.
type stateMsg state.State

type readyMsg struct{}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		func() tea.Msg { return readyMsg{} },
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		m.readyFn()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			// Update must never block, so a full queue drops the line.
			// Printing happens from a Cmd for the same reason.
			select {
			case m.inputCh <- v:
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			default:
				busyFn := m.busyFn
				return m, func() tea.Msg {
					busyFn(busyHint)
					return nil
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.widthFn != nil {
			m.widthFn(msg.Width)
		}
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case stateMsg:
		m.snap = state.State(msg)
		return m, tea.SetWindowTitle(windowTitle(m.snap))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	activity := ""
	if m.snap.Loading() {
		activity = m.spinner.View()
	}
	b.WriteString(renderBar(StatusLine(m.snap, activity), m.width))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func renderBar(content string, width int) string {
	if width <= 0 {
		width = 80
	}
	return barBg.Width(width).Render(" " + content + " ")
}

// StatusLine summarizes a snapshot: who is signed in, the cart badge,
// the recipe page and, when something is loading, the activity marker.
func StatusLine(s state.State, activity string) string {
	var user string
	switch {
	case s.Auth.User != nil:
		user = userStyle.Render(s.Auth.User.DisplayName())
	case s.Auth.Status == domain.SessionUnknown:
		user = guestStyle.Render("connecting")
	default:
		user = guestStyle.Render("guest")
	}

	parts := []string{
		user,
		labelStyle.Render("cart ") + badgeStyle.Render(fmt.Sprint(s.ShoppingList.CartCount)),
		labelStyle.Render(fmt.Sprintf("page %d/%d", s.Recipes.CurrentPage, s.Recipes.TotalPages)),
	}
	if activity != "" {
		parts = append(parts, activity)
	}
	return strings.Join(parts, sepStyle.Render("  │  "))
}

func windowTitle(s state.State) string {
	if s.Auth.User == nil {
		return "recipebox"
	}
	return fmt.Sprintf("recipebox · %s (%d in cart)", s.Auth.User.Username, s.ShoppingList.CartCount)
}

// RecipeList renders a compact numbered list.
func RecipeList(heading string, items []domain.Recipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  " + heading))
	if len(items) == 0 {
		b.WriteString("\n" + secondaryStyle.Render("    (nothing here)"))
		return b.String()
	}
	for _, r := range items {
		marks := ""
		if r.IsFavorited {
			marks += " ★"
		}
		if r.IsInShoppingCart {
			marks += " 🛒"
		}
		fmt.Fprintf(&b, "\n    %s %s%s",
			secondaryStyle.Render(fmt.Sprintf("%3d", r.ID)),
			primaryStyle.Render(r.Name),
			badgeStyle.Render(marks))
		b.WriteString(secondaryStyle.Render(fmt.Sprintf("  %d min · %s", r.CookingTime, r.Author.DisplayName())))
	}
	return b.String()
}

// SubscriptionList renders followed authors with their recipe previews.
func SubscriptionList(heading string, subs []domain.Subscription) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  " + heading))
	if len(subs) == 0 {
		b.WriteString("\n" + secondaryStyle.Render("    (nothing here)"))
		return b.String()
	}
	for _, s := range subs {
		fmt.Fprintf(&b, "\n    %s %s",
			secondaryStyle.Render(fmt.Sprintf("%3d", s.ID)),
			primaryStyle.Render(s.DisplayName()))
		b.WriteString(secondaryStyle.Render(fmt.Sprintf("  %d recipes", s.RecipesCount)))
		for _, r := range s.Recipes {
			b.WriteString("\n" + secondaryStyle.Render(fmt.Sprintf("        #%d %s · %d min", r.ID, r.Name, r.CookingTime)))
		}
	}
	return b.String()
}
