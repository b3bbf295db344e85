// Package printers renders queue items for the non-interactive CLI
// surfaces.
package printers

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"

	"tableflip.dev/slate/pkg/projection"
	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// Agenda prints a window's projection as a day-by-day agenda.
type Agenda struct {
	ShowID bool
	Loc    *time.Location
}

// Print writes the agenda for the window to color.Output. Days without
// items are skipped; the unscheduled bucket trails the agenda.
func (a *Agenda) Print(w timeutil.Window, proj projection.Projection) {
	loc := a.Loc
	if loc == nil {
		loc = time.Local
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	title := color.New(color.Bold, color.Underline)
	_, _ = title.Fprintln(color.Output, w.Title())

	today := timeutil.DateKey(time.Now(), loc)
	printed := 0
	for _, day := range w.Days() {
		key := timeutil.DateKey(day, loc)
		items := proj.Day(key)
		if len(items) == 0 {
			continue
		}
		a.printDay(day, key == today, items, loc)
		printed += len(items)
	}
	if printed == 0 {
		faint := color.New(color.Faint, color.Italic)
		_, _ = faint.Fprintln(color.Output, " nothing scheduled")
	}

	if len(proj.Unscheduled) > 0 {
		header := color.New(color.Bold)
		_, _ = header.Fprintf(color.Output, "\nUnscheduled - %d\n", len(proj.Unscheduled))
		a.printTable(proj.Unscheduled, loc)
	}
}

func (a *Agenda) printDay(day time.Time, isToday bool, items []queue.Item, loc *time.Location) {
	header := color.New(color.Bold)
	label := day.Format("Mon Jan 2")
	if isToday {
		label += " (today)"
		header = header.Add(color.FgHiYellow)
	}
	_, _ = header.Fprintf(color.Output, "\n%s\n", label)
	a.printTable(items, loc)
}

func (a *Agenda) printTable(items []queue.Item, loc *time.Location) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	faint := color.New(color.Faint)
	for _, item := range items {
		clock := "--:--"
		if item.ScheduledFor != nil {
			clock = item.ScheduledFor.In(loc).Format("15:04")
		}
		status := string(item.Status)
		if item.Posted() {
			status = faint.Sprint("posted")
		}
		if a.ShowID {
			tbl.AddRow(faint.Sprint(item.ID), clock, item.Platform, status, item.Content)
		} else {
			tbl.AddRow(clock, item.Platform, status, item.Content)
		}
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}
