// Package itemform renders the modal for drafting a new queue item or
// editing the content of an existing one.
package itemform

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/timeutil"
	"tableflip.dev/slate/pkg/tui/events"
	"tableflip.dev/slate/pkg/tui/theme"
)

type focusField int

const (
	fieldContent focusField = iota
	fieldPlatform
	fieldTime
)

// Model is the create/edit modal. In edit mode only the content field is
// live; platform and schedule are fixed server-side facts.
type Model struct {
	id    events.ComponentID
	theme theme.Theme
	loc   *time.Location

	editing  bool
	original queue.Item
	dateKey  string

	focus     focusField
	platforms []queue.Platform
	platIdx   int

	content   textinput.Model
	timeInput textinput.Model

	busy     bool
	errorMsg string
	width    int
}

// NewCreate constructs the modal for drafting a new item. dateKey may be
// empty for an unscheduled draft.
func NewCreate(dateKey string, platform queue.Platform, loc *time.Location) *Model {
	m := newModel(loc)
	m.dateKey = dateKey
	for i, p := range m.platforms {
		if p == platform {
			m.platIdx = i
		}
	}
	if dateKey != "" {
		m.timeInput.SetValue(fmt.Sprintf("%02d:00", timeutil.DefaultHour))
	}
	return m
}

// NewEdit constructs the modal pre-filled with an existing item's text.
func NewEdit(item queue.Item, loc *time.Location) *Model {
	m := newModel(loc)
	m.editing = true
	m.original = item.Clone()
	m.content.SetValue(item.Content)
	return m
}

func newModel(loc *time.Location) *Model {
	if loc == nil {
		loc = time.Local
	}
	content := textinput.New()
	content.Placeholder = "What do you want to post?"
	content.Focus()
	content.Prompt = ""

	timeInput := textinput.New()
	timeInput.Placeholder = "HH:MM"
	timeInput.Prompt = ""
	timeInput.CharLimit = 5

	return &Model{
		id:        events.ComponentID("itemform"),
		theme:     theme.Default(),
		loc:       loc,
		platforms: queue.Platforms(),
		content:   content,
		timeInput: timeInput,
	}
}

// ID returns the component identifier.
func (m *Model) ID() events.ComponentID { return m.id }

// SetBusy blocks submission while a commit is in flight.
func (m *Model) SetBusy(busy bool) { m.busy = busy }

// SetSize configures the modal width.
func (m *Model) SetSize(width, _ int) {
	if width <= 0 {
		width = 80
	}
	m.width = width
	inner := width - 12
	if inner < 20 {
		inner = 20
	}
	m.content.SetWidth(inner)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return m.content.Focus() }

// Update processes key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "esc":
		return m, func() tea.Msg { return events.FormCancelMsg{Component: m.id} }
	case "tab":
		m.advanceFocus(1)
		return m, m.syncFocus()
	case "shift+tab":
		m.advanceFocus(-1)
		return m, m.syncFocus()
	case "enter":
		return m, m.submit()
	case "left", "h":
		if m.focus == fieldPlatform {
			m.cyclePlatform(-1)
			return m, nil
		}
	case "right", "l":
		if m.focus == fieldPlatform {
			m.cyclePlatform(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
	case fieldTime:
		m.timeInput, cmd = m.timeInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		m.errorMsg = "still saving, hold on"
		return nil
	}
	content := strings.TrimSpace(m.content.Value())
	if content == "" {
		m.errorMsg = "content is required"
		return nil
	}

	if m.editing {
		m.busy = true
		return events.IntentCmd(m.id, sched.EditContent(m.original, content))
	}

	at, err := m.scheduledAt()
	if err != nil {
		m.errorMsg = err.Error()
		return nil
	}
	draft := queue.Draft{
		Platform:     m.platforms[m.platIdx],
		Content:      content,
		ScheduledFor: at,
	}
	// Latched until the root model either closes the form or resets it
	// after a stage rejection; keeps a double Enter to one intent.
	m.busy = true
	return events.IntentCmd(m.id, sched.Create(draft))
}

// scheduledAt combines the target day with the time field. An empty day
// means the draft lands in the unscheduled bucket.
func (m *Model) scheduledAt() (*time.Time, error) {
	if m.dateKey == "" {
		return nil, nil
	}
	day, err := timeutil.ParseDateKey(m.dateKey, m.loc)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(m.timeInput.Value())
	if raw == "" {
		at := timeutil.CombineDayTime(day, nil)
		return &at, nil
	}
	clock, err := time.Parse("15:04", raw)
	if err != nil {
		return nil, fmt.Errorf("time must look like 14:30, got %q", raw)
	}
	at := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, m.loc)
	return &at, nil
}

func (m *Model) advanceFocus(delta int) {
	seq := []focusField{fieldContent}
	if !m.editing {
		seq = append(seq, fieldPlatform)
		if m.dateKey != "" {
			seq = append(seq, fieldTime)
		}
	}
	current := 0
	for i, f := range seq {
		if f == m.focus {
			current = i
		}
	}
	m.focus = seq[(current+len(seq)+delta)%len(seq)]
}

func (m *Model) syncFocus() tea.Cmd {
	m.content.Blur()
	m.timeInput.Blur()
	switch m.focus {
	case fieldContent:
		return m.content.Focus()
	case fieldTime:
		return m.timeInput.Focus()
	}
	return nil
}

func (m *Model) cyclePlatform(delta int) {
	n := len(m.platforms)
	m.platIdx = (m.platIdx + n + delta) % n
}

// View renders the modal body inside the themed frame.
func (m *Model) View() string {
	title := "New Post"
	if m.editing {
		title = "Edit Post"
	}
	lines := []string{m.theme.Modal.Title.Render(title), ""}

	lines = append(lines, m.renderRow("Content:", m.content.View(), m.focus == fieldContent))
	if !m.editing {
		lines = append(lines, m.renderRow("Platform:", "◂ "+string(m.platforms[m.platIdx])+" ▸", m.focus == fieldPlatform))
		if m.dateKey != "" {
			lines = append(lines, m.renderRow("Day:", m.dateKey, false))
			lines = append(lines, m.renderRow("Time:", m.timeInput.View(), m.focus == fieldTime))
		}
	}

	lines = append(lines, "")
	switch {
	case m.errorMsg != "":
		lines = append(lines, m.theme.Footer.Error.Render(m.errorMsg))
	case m.busy:
		lines = append(lines, m.theme.Modal.Hint.Render("saving…"))
	default:
		lines = append(lines, m.theme.Modal.Hint.Render("Enter to save • Esc to cancel • Tab between fields"))
	}

	return m.theme.Modal.Frame.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRow(label, value string, focused bool) string {
	indicator := "  "
	if focused {
		indicator = "➤ "
	}
	return indicator + fmt.Sprintf("%-10s", label) + value
}
