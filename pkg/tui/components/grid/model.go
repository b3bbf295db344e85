// Package grid renders the calendar window as a navigable grid of days,
// with an unscheduled tray and keyboard pick-up/drop rescheduling.
package grid

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/slate/pkg/projection"
	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/timeutil"
	"tableflip.dev/slate/pkg/tui/events"
	"tableflip.dev/slate/pkg/tui/theme"
)

// Model owns the day cursor, the item cursor, and the drag controller.
// It never mutates the projection; mutations leave as intent messages.
type Model struct {
	window timeutil.Window
	proj   projection.Projection
	loc    *time.Location
	now    func() time.Time

	theme theme.Theme
	id    events.ComponentID

	width  int
	height int

	dayIdx      int
	itemIdx     int
	trayFocused bool
	trayIdx     int

	drag     sched.Drag
	inFlight func(id string) bool
}

// NewModel constructs the grid for a window in the given location.
func NewModel(w timeutil.Window, loc *time.Location) *Model {
	if loc == nil {
		loc = time.Local
	}
	return &Model{
		window: w,
		proj:   projection.Empty(),
		loc:    loc,
		now:    time.Now,
		theme:  theme.Default(),
		id:     events.ComponentID("grid"),
	}
}

// ID returns the component identifier.
func (m *Model) ID() events.ComponentID { return m.id }

// SetSize configures the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m.width = width
	m.height = height
}

// SetNow overrides the clock (tests).
func (m *Model) SetNow(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// SetInFlight configures the predicate used to dim items with an
// unreconciled mutation.
func (m *Model) SetInFlight(fn func(id string) bool) {
	m.inFlight = fn
}

// SetState replaces the rendered window and projection. Cursors are
// clamped, never reset, so a refresh does not steal the selection.
func (m *Model) SetState(w timeutil.Window, proj projection.Projection) {
	m.window = w
	m.proj = proj
	m.clampCursors()
}

// Window returns the currently rendered window.
func (m *Model) Window() timeutil.Window { return m.window }

// Holding reports whether an item is picked up.
func (m *Model) Holding() bool { return m.drag.Active() }

// SelectedItem returns the item under the cursor, if any.
func (m *Model) SelectedItem() (queue.Item, bool) {
	items := m.cursorItems()
	idx := m.cursorIndex()
	if idx < 0 || idx >= len(items) {
		return queue.Item{}, false
	}
	return items[idx], true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update handles navigation and drag keys.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "h":
		m.moveDay(-1)
	case "right", "l":
		m.moveDay(1)
	case "up", "k":
		m.moveItem(-1)
	case "down", "j":
		m.moveItem(1)
	case "tab":
		m.trayFocused = !m.trayFocused
		m.clampCursors()
	case "esc":
		if m.drag.Active() {
			m.drag.Cancel()
			return m, events.StatusCmd(m.id, "move cancelled")
		}
	case "space", " ", "enter":
		return m, m.grabOrDrop()
	case "e":
		if item, ok := m.SelectedItem(); ok {
			return m, events.ItemSelectCmd(m.id, item)
		}
	case "n":
		dateKey := ""
		if !m.trayFocused {
			dateKey = m.currentDayKey()
		}
		return m, events.NewItemRequestCmd(m.id, dateKey)
	case "d":
		if item, ok := m.SelectedItem(); ok {
			prompt := fmt.Sprintf("Delete %q?", excerpt(item.Content, 40))
			return m, events.ConfirmRequestCmd(m.id, prompt, sched.Delete(item))
		}
	case "x":
		if item, ok := m.SelectedItem(); ok {
			if item.Posted() {
				return m, events.StatusCmd(m.id, "already posted")
			}
			prompt := fmt.Sprintf("Mark %q as posted?", excerpt(item.Content, 40))
			return m, events.ConfirmRequestCmd(m.id, prompt, sched.MarkPosted(item))
		}
	}
	return m, nil
}

// grabOrDrop picks up the item under the cursor, or releases the held
// item onto the current target. A drop onto the tray unschedules.
func (m *Model) grabOrDrop() tea.Cmd {
	if !m.drag.Active() {
		item, ok := m.SelectedItem()
		if !ok {
			return nil
		}
		if err := m.drag.Begin(item); err != nil {
			return events.StatusCmd(m.id, err.Error())
		}
		return events.StatusCmd(m.id, fmt.Sprintf("moving %q", excerpt(item.Content, 30)))
	}
	if m.trayFocused {
		held, _ := m.drag.Item()
		m.drag.Cancel()
		return events.IntentCmd(m.id, sched.Unschedule(held))
	}
	intent, err := m.drag.Drop(m.currentDayKey(), m.loc)
	if err != nil {
		return events.StatusCmd(m.id, err.Error())
	}
	return events.IntentCmd(m.id, intent)
}

func (m *Model) moveDay(delta int) {
	if m.trayFocused {
		return
	}
	days := m.window.Days()
	if len(days) == 0 {
		return
	}
	m.dayIdx += delta
	if m.dayIdx < 0 {
		m.dayIdx = 0
	}
	if m.dayIdx >= len(days) {
		m.dayIdx = len(days) - 1
	}
	m.itemIdx = 0
	m.clampCursors()
}

func (m *Model) moveItem(delta int) {
	items := m.cursorItems()
	if len(items) == 0 {
		return
	}
	idx := m.cursorIndex() + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if m.trayFocused {
		m.trayIdx = idx
	} else {
		m.itemIdx = idx
	}
}

func (m *Model) cursorItems() []queue.Item {
	if m.trayFocused {
		return m.proj.Unscheduled
	}
	return m.proj.Day(m.currentDayKey())
}

func (m *Model) cursorIndex() int {
	if m.trayFocused {
		return m.trayIdx
	}
	return m.itemIdx
}

func (m *Model) currentDayKey() string {
	days := m.window.Days()
	if len(days) == 0 {
		return ""
	}
	idx := m.dayIdx
	if idx < 0 {
		idx = 0
	}
	if idx >= len(days) {
		idx = len(days) - 1
	}
	return timeutil.DateKey(days[idx], m.loc)
}

func (m *Model) clampCursors() {
	days := m.window.Days()
	if m.dayIdx >= len(days) {
		m.dayIdx = len(days) - 1
	}
	if m.dayIdx < 0 {
		m.dayIdx = 0
	}
	if items := m.proj.Day(m.currentDayKey()); m.itemIdx >= len(items) {
		m.itemIdx = len(items) - 1
	}
	if m.itemIdx < 0 {
		m.itemIdx = 0
	}
	if m.trayIdx >= len(m.proj.Unscheduled) {
		m.trayIdx = len(m.proj.Unscheduled) - 1
	}
	if m.trayIdx < 0 {
		m.trayIdx = 0
	}
}

// View renders the window title, the day sections, and the tray.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.theme.Grid.Header.Render(m.window.Title()))
	b.WriteString("\n")

	today := timeutil.DateKey(m.now(), m.loc)
	for i, day := range m.window.Days() {
		key := timeutil.DateKey(day, m.loc)
		b.WriteString(m.renderDayLabel(day, key, today, i == m.dayIdx && !m.trayFocused))
		b.WriteString("\n")
		for j, item := range m.proj.Day(key) {
			selected := !m.trayFocused && i == m.dayIdx && j == m.itemIdx
			b.WriteString(m.renderItemLine(item, selected, width))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderTray(width))
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderDayLabel(day time.Time, key, today string, active bool) string {
	label := day.Format("Mon Jan 2")
	style := m.theme.Grid.DayLabel
	if key == today {
		style = m.theme.Grid.Today
		label += " (today)"
	}
	if m.window.Mode == timeutil.ModeMonth && day.Month() != m.window.Anchor.Month() {
		// Padding days carried in from the neighbor months.
		style = m.theme.Grid.Carry
	}
	if active {
		label = "▸ " + label
	} else {
		label = "  " + label
	}
	return style.Render(label)
}

func (m *Model) renderItemLine(item queue.Item, selected bool, width int) string {
	held := false
	if h, ok := m.drag.Item(); ok && h.ID == item.ID {
		held = true
	}

	clock := "     "
	if item.ScheduledFor != nil {
		clock = item.ScheduledFor.In(m.loc).Format("15:04")
	}
	line := fmt.Sprintf("    %s %s %s", clock, platformTag(item.Platform), item.Content)
	line = truncate.StringWithTail(line, uint(width), "…")

	style := m.theme.Grid.Item
	switch {
	case held:
		style = m.theme.Grid.Held
	case item.Posted():
		style = m.theme.Grid.Posted
	case m.inFlight != nil && m.inFlight(item.ID):
		style = m.theme.Grid.Pending
	}
	if selected && !held {
		style = m.theme.Grid.Cursor
	}
	return style.Render(line)
}

func (m *Model) renderTray(width int) string {
	title := m.theme.Tray.Title.Render(fmt.Sprintf("Unscheduled (%d)", len(m.proj.Unscheduled)))
	if m.trayFocused {
		title = "▸ " + title
	} else {
		title = "  " + title
	}
	lines := []string{title}
	for j, item := range m.proj.Unscheduled {
		selected := m.trayFocused && j == m.trayIdx
		lines = append(lines, m.renderItemLine(item, selected, width))
	}
	return strings.Join(lines, "\n")
}

func platformTag(p queue.Platform) string {
	return "[" + strings.ToLower(string(p)) + "]"
}

func excerpt(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "…"
}
