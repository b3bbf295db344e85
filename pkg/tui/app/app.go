// Package app wires the calendar TUI together: the grid, the modals,
// the mutation engine, and the background refresh cadence.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/store"
	"tableflip.dev/slate/pkg/timeutil"
	"tableflip.dev/slate/pkg/tui/components/confirm"
	"tableflip.dev/slate/pkg/tui/components/grid"
	"tableflip.dev/slate/pkg/tui/components/itemform"
	"tableflip.dev/slate/pkg/tui/events"
	"tableflip.dev/slate/pkg/tui/theme"
)

type mode int

const (
	modeGrid mode = iota
	modeForm
	modeConfirm
)

type loadDoneMsg struct {
	window timeutil.Window
	err    error
}

type commitDoneMsg struct {
	intent sched.Intent
	err    error
}

// Model is the root Bubble Tea model. It is the only writer of the
// engine and the only component that turns intents into commits.
type Model struct {
	ctx    context.Context
	engine *sched.Engine
	cache  *store.WindowCache
	theme  theme.Theme

	grid        *grid.Model
	form        *itemform.Model
	confirmView *confirm.Model
	mode        mode

	window          timeutil.Window
	loc             *time.Location
	defaultPlatform queue.Platform
	refreshCh       <-chan struct{}

	status string
	width  int
	height int
}

// Options configure the root model.
type Options struct {
	Engine          *sched.Engine
	Cache           *store.WindowCache
	Mode            timeutil.Mode
	DefaultPlatform queue.Platform
	RefreshCh       <-chan struct{}
}

// New constructs the root model anchored on today.
func New(ctx context.Context, opts Options) *Model {
	loc := opts.Engine.Location()
	viewMode := opts.Mode
	if viewMode == "" {
		viewMode = timeutil.ModeWeek
	}
	w := timeutil.ComputeWindow(time.Now().In(loc), viewMode)

	g := grid.NewModel(w, loc)
	g.SetInFlight(opts.Engine.InFlight)

	return &Model{
		ctx:             ctx,
		engine:          opts.Engine,
		cache:           opts.Cache,
		theme:           theme.Default(),
		grid:            g,
		window:          w,
		loc:             loc,
		defaultPlatform: opts.DefaultPlatform,
		refreshCh:       opts.RefreshCh,
	}
}

// Init paints from the offline cache when possible, then starts the
// first live load and the event subscriptions.
func (m *Model) Init() tea.Cmd {
	if m.cache != nil {
		if items, ok := m.cache.Get(m.window); ok {
			m.engine.Seed(items)
			m.grid.SetState(m.window, m.engine.Snapshot())
			m.status = "showing cached items"
		}
	}
	return tea.Batch(m.loadCmd(m.window), m.waitForEngine(), m.waitForRefresh())
}

func (m *Model) loadCmd(w timeutil.Window) tea.Cmd {
	return func() tea.Msg {
		err := m.engine.LoadWindow(m.ctx, w)
		return loadDoneMsg{window: w, err: err}
	}
}

func (m *Model) commitCmd(st sched.Staged) tea.Cmd {
	return func() tea.Msg {
		err := m.engine.Commit(m.ctx, st)
		return commitDoneMsg{intent: st.Intent, err: err}
	}
}

// waitForEngine forwards the next engine event into the loop. Re-armed
// after every delivery.
func (m *Model) waitForEngine() tea.Cmd {
	ch := m.engine.Events()
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return events.EngineMsg{Event: ev}
		}
		return nil
	}
}

func (m *Model) waitForRefresh() tea.Cmd {
	if m.refreshCh == nil {
		return nil
	}
	ch := m.refreshCh
	return func() tea.Msg {
		if _, ok := <-ch; ok {
			return events.RefreshTickMsg{}
		}
		return nil
	}
}

// Update routes messages between components and the engine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.grid.SetSize(msg.Width, msg.Height-2)
		if m.form != nil {
			m.form.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
		}
		return m, nil

	case commitDoneMsg:
		// Reconciliation details arrive as engine events; nothing to do.
		return m, nil

	case events.EngineMsg:
		m.handleEngineEvent(msg.Event, &cmds)
		cmds = append(cmds, m.waitForEngine())
		return m, tea.Batch(cmds...)

	case events.RefreshTickMsg:
		cmds = append(cmds, m.loadCmd(m.window), m.waitForRefresh())
		return m, tea.Batch(cmds...)

	case events.IntentMsg:
		return m, m.stageAndCommit(msg.Intent)

	case events.ItemSelectMsg:
		m.form = itemform.NewEdit(msg.Item, m.loc)
		m.form.SetSize(m.width, m.height)
		m.mode = modeForm
		return m, m.form.Init()

	case events.NewItemRequestMsg:
		m.form = itemform.NewCreate(msg.DateKey, m.defaultPlatform, m.loc)
		m.form.SetSize(m.width, m.height)
		m.mode = modeForm
		return m, m.form.Init()

	case events.ConfirmRequestMsg:
		m.confirmView = confirm.NewModel(msg.Prompt, msg.Intent)
		m.mode = modeConfirm
		return m, nil

	case events.ConfirmResultMsg:
		intent := m.confirmView.Intent()
		m.confirmView = nil
		m.mode = modeGrid
		if !msg.Accepted {
			m.status = "cancelled"
			return m, nil
		}
		return m, m.stageAndCommit(intent)

	case events.FormCancelMsg:
		m.form = nil
		m.mode = modeGrid
		return m, nil

	case events.WindowChangedMsg:
		m.status = "showing " + msg.Window.Title()
		return m, nil

	case events.StatusMsg:
		m.status = msg.Text
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		_, cmd := m.form.Update(msg)
		return m, cmd
	case modeConfirm:
		_, cmd := m.confirmView.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if m.grid.Holding() {
			break // let the grid cancel first
		}
		return m, tea.Quit
	case "w":
		return m, m.navigate(timeutil.ComputeWindow(m.window.Anchor, timeutil.ModeWeek))
	case "m":
		return m, m.navigate(timeutil.ComputeWindow(m.window.Anchor, timeutil.ModeMonth))
	case "[":
		return m, m.navigate(m.window.Prev())
	case "]":
		return m, m.navigate(m.window.Next())
	case "t":
		return m, m.navigate(timeutil.ComputeWindow(time.Now().In(m.loc), m.window.Mode))
	case "r":
		m.status = "refreshing"
		return m, m.loadCmd(m.window)
	}

	_, cmd := m.grid.Update(msg)
	return m, cmd
}

// navigate switches the window immediately and fetches in the
// background. Items already in the projection keep painting while the
// fetch is out.
func (m *Model) navigate(w timeutil.Window) tea.Cmd {
	m.window = w
	m.grid.SetState(w, m.engine.Snapshot())
	return tea.Batch(m.loadCmd(w), events.WindowChangedCmd("app", w))
}

// stageAndCommit applies an intent optimistically and issues the remote
// write off the UI loop. A rejection never touches the projection.
func (m *Model) stageAndCommit(intent sched.Intent) tea.Cmd {
	st, err := m.engine.Stage(intent)
	if err != nil {
		m.status = err.Error()
		if m.mode == modeForm && m.form != nil {
			m.form.SetBusy(false)
		}
		return nil
	}
	if m.mode == modeForm {
		m.form = nil
		m.mode = modeGrid
	}
	m.grid.SetState(m.window, m.engine.Snapshot())
	return m.commitCmd(st)
}

func (m *Model) handleEngineEvent(ev sched.Event, cmds *[]tea.Cmd) {
	switch ev := ev.(type) {
	case sched.ChangedEvent:
		m.grid.SetState(m.window, m.engine.Snapshot())
	case sched.LoadedEvent:
		m.status = fmt.Sprintf("%d items", ev.Count)
		if m.cache != nil {
			_ = m.cache.Put(ev.Window, m.engine.Snapshot().Items())
		}
	case sched.CommittedEvent:
		m.status = "saved"
	case sched.FailedEvent:
		m.status = fmt.Sprintf("change rejected, restored: %v", ev.Err)
	case sched.RefreshNeededEvent:
		*cmds = append(*cmds, m.loadCmd(m.window))
	}
}

// View composes the grid, any active modal, and the footer.
func (m *Model) View() string {
	var body string
	switch m.mode {
	case modeForm:
		body = m.form.View()
	case modeConfirm:
		body = m.confirmView.View()
	default:
		body = m.grid.View()
	}
	return body + "\n" + m.footer()
}

func (m *Model) footer() string {
	help := "[/]: navigate • w/m: week/month • t: today • space: move • n: new • e: edit • d: delete • x: posted • q: quit"
	parts := []string{m.theme.Footer.Help.Render(help)}
	if m.status != "" {
		parts = append(parts, m.theme.Footer.Status.Render(m.status))
	}
	return strings.Join(parts, "\n")
}

// Run starts the full-screen program against the configured queue.
func Run(ctx context.Context, cfg store.Config) error {
	client := queue.NewClient(cfg.APIBase(), cfg.Token())
	engine := sched.New(client, time.Local)

	cache, err := store.OpenCache(cfg.CachePath())
	if err != nil {
		return err
	}

	refreshCh := make(chan struct{}, 1)
	refresher, err := sched.NewRefresher(cfg.RefreshInterval(), func() {
		select {
		case refreshCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	refresher.Start()
	defer refresher.Stop()

	model := New(ctx, Options{
		Engine:          engine,
		Cache:           cache,
		Mode:            cfg.DefaultMode(),
		DefaultPlatform: cfg.DefaultPlatform(),
		RefreshCh:       refreshCh,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
