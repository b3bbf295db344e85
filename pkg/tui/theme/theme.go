package theme

import "github.com/charmbracelet/lipgloss/v2"

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Grid   GridTheme
	Tray   TrayTheme
	Footer FooterTheme
	Modal  ModalTheme
}

// GridTheme groups the calendar grid styles.
type GridTheme struct {
	Header   lipgloss.Style
	DayLabel lipgloss.Style
	Today    lipgloss.Style
	Carry    lipgloss.Style
	Cell     lipgloss.Style
	Item     lipgloss.Style
	Posted   lipgloss.Style
	Pending  lipgloss.Style
	Cursor   lipgloss.Style
	Held     lipgloss.Style
}

// TrayTheme styles the unscheduled side tray.
type TrayTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Item  lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// ModalTheme styles centered overlays (item form, confirmation).
type ModalTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
	Hint  lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	return Theme{
		Grid: GridTheme{
			Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
			DayLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Today:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
			Carry:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			Cell:     lipgloss.NewStyle(),
			Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
			Posted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Strikethrough(true),
			Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
			Cursor:   lipgloss.NewStyle().Reverse(true),
			Held:     lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("0")),
		},
		Tray: TrayTheme{
			Frame: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
			Title: lipgloss.NewStyle().Bold(true),
			Item:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		},
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(1, 2),
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
			Hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		},
	}
}
