// Package confirm renders a yes/no modal guarding destructive intents.
package confirm

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/tui/events"
	"tableflip.dev/slate/pkg/tui/theme"
)

// Model holds the prompt and the intent it guards. The intent only
// leaves as an IntentMsg after an explicit yes.
type Model struct {
	id     events.ComponentID
	theme  theme.Theme
	prompt string
	intent sched.Intent
}

// NewModel constructs the confirmation modal.
func NewModel(prompt string, intent sched.Intent) *Model {
	return &Model{
		id:     events.ComponentID("confirm"),
		theme:  theme.Default(),
		prompt: prompt,
		intent: intent,
	}
}

// ID returns the component identifier.
func (m *Model) ID() events.ComponentID { return m.id }

// Intent returns the guarded intent.
func (m *Model) Intent() sched.Intent { return m.intent }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update answers on y/n, enter/esc.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y", "enter":
		return m, m.resultCmd(true)
	case "n", "N", "esc":
		return m, m.resultCmd(false)
	}
	return m, nil
}

func (m *Model) resultCmd(accepted bool) tea.Cmd {
	return func() tea.Msg {
		return events.ConfirmResultMsg{Component: m.id, Accepted: accepted}
	}
}

// View renders the prompt inside the themed frame.
func (m *Model) View() string {
	lines := []string{
		m.theme.Modal.Title.Render("Confirm"),
		"",
		m.theme.Modal.Body.Render(m.prompt),
		"",
		m.theme.Modal.Hint.Render("y to confirm • n to cancel"),
	}
	return m.theme.Modal.Frame.Render(strings.Join(lines, "\n"))
}
