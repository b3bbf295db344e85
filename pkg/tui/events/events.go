// Package events defines the typed messages the TUI components exchange.
// Components never write shared state; they emit these messages and the
// root model routes them.
package events

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/timeutil"
)

// ComponentID uniquely identifies a component instance emitting events.
type ComponentID string

// IntentMsg carries a mutation intent from any producer (grid drop, modal
// submit, confirmation) to the root model, which owns the engine.
type IntentMsg struct {
	Component ComponentID
	Intent    sched.Intent
}

// Describe renders the intent for logs.
func (m IntentMsg) Describe() string {
	return fmt.Sprintf(`component:%q intent:{%s}`, m.Component, m.Intent.Describe())
}

// IntentCmd wraps IntentMsg in a tea.Cmd.
func IntentCmd(component ComponentID, intent sched.Intent) tea.Cmd {
	return func() tea.Msg {
		return IntentMsg{Component: component, Intent: intent}
	}
}

// ItemSelectMsg fires when the operator activates an item (open detail).
type ItemSelectMsg struct {
	Component ComponentID
	Item      queue.Item
}

// Describe renders the selection for logs.
func (m ItemSelectMsg) Describe() string {
	return fmt.Sprintf(`component:%q item:%q`, m.Component, m.Item.ID)
}

// ItemSelectCmd wraps ItemSelectMsg in a tea.Cmd.
func ItemSelectCmd(component ComponentID, item queue.Item) tea.Cmd {
	return func() tea.Msg {
		return ItemSelectMsg{Component: component, Item: item}
	}
}

// NewItemRequestMsg asks the root model to open the creation modal for a
// day (empty for the unscheduled bucket).
type NewItemRequestMsg struct {
	Component ComponentID
	DateKey   string
}

// Describe renders the request for logs.
func (m NewItemRequestMsg) Describe() string {
	return fmt.Sprintf(`component:%q day:%q`, m.Component, m.DateKey)
}

// NewItemRequestCmd wraps NewItemRequestMsg in a tea.Cmd.
func NewItemRequestCmd(component ComponentID, dateKey string) tea.Cmd {
	return func() tea.Msg {
		return NewItemRequestMsg{Component: component, DateKey: dateKey}
	}
}

// ConfirmRequestMsg asks the root model to seek confirmation before a
// destructive intent (delete, mark posted).
type ConfirmRequestMsg struct {
	Component ComponentID
	Prompt    string
	Intent    sched.Intent
}

// Describe renders the request for logs.
func (m ConfirmRequestMsg) Describe() string {
	return fmt.Sprintf(`component:%q prompt:%q intent:{%s}`, m.Component, m.Prompt, m.Intent.Describe())
}

// ConfirmRequestCmd wraps ConfirmRequestMsg in a tea.Cmd.
func ConfirmRequestCmd(component ComponentID, prompt string, intent sched.Intent) tea.Cmd {
	return func() tea.Msg {
		return ConfirmRequestMsg{Component: component, Prompt: prompt, Intent: intent}
	}
}

// ConfirmResultMsg reports the operator's answer to a confirmation.
type ConfirmResultMsg struct {
	Component ComponentID
	Accepted  bool
}

// Describe renders the answer for logs.
func (m ConfirmResultMsg) Describe() string {
	return fmt.Sprintf(`component:%q accepted:%v`, m.Component, m.Accepted)
}

// FormCancelMsg closes the active modal without a mutation.
type FormCancelMsg struct {
	Component ComponentID
}

// Describe renders the cancellation for logs.
func (m FormCancelMsg) Describe() string {
	return fmt.Sprintf(`component:%q`, m.Component)
}

// StatusMsg updates the footer status line (non-blocking surface for
// failures and progress).
type StatusMsg struct {
	Component ComponentID
	Text      string
}

// Describe renders the status for logs.
func (m StatusMsg) Describe() string {
	return fmt.Sprintf(`component:%q text:%q`, m.Component, m.Text)
}

// StatusCmd wraps StatusMsg in a tea.Cmd.
func StatusCmd(component ComponentID, text string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Component: component, Text: text}
	}
}

// EngineMsg forwards one engine event into the Bubble Tea loop.
type EngineMsg struct {
	Event sched.Event
}

// Describe renders the wrapped event for logs.
func (m EngineMsg) Describe() string {
	if m.Event == nil {
		return "event:nil"
	}
	return m.Event.Describe()
}

// RefreshTickMsg is posted by the background refresher cadence.
type RefreshTickMsg struct{}

// Describe renders the tick for logs.
func (m RefreshTickMsg) Describe() string {
	return "refresh tick"
}

// WindowChangedMsg announces that the active calendar window moved.
type WindowChangedMsg struct {
	Component ComponentID
	Window    timeutil.Window
}

// Describe renders the navigation for logs.
func (m WindowChangedMsg) Describe() string {
	return fmt.Sprintf(`component:%q window:%q mode:%q`, m.Component, m.Window.Key(), m.Window.Mode)
}

// WindowChangedCmd wraps WindowChangedMsg in a tea.Cmd.
func WindowChangedCmd(component ComponentID, w timeutil.Window) tea.Cmd {
	return func() tea.Msg {
		return WindowChangedMsg{Component: component, Window: w}
	}
}
