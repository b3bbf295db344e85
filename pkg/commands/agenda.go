package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/slate/pkg/printers"
	"tableflip.dev/slate/pkg/projection"
	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/store"
	"tableflip.dev/slate/pkg/timeutil"
)

func addAgenda(topLevel *cobra.Command) {
	var (
		modeFlag string
		dateFlag string
		showID   bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "print the scheduled queue for a week or month",
		Example: `
slate agenda
slate agenda --mode month
slate agenda --date 2024-06-05 --id
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}

			mode := cfg.DefaultMode()
			if modeFlag != "" {
				if mode, err = timeutil.ParseMode(modeFlag); err != nil {
					return err
				}
			}
			anchor := time.Now().In(time.Local)
			if dateFlag != "" {
				if anchor, err = timeutil.ParseDateKey(dateFlag, time.Local); err != nil {
					return err
				}
			}
			w := timeutil.ComputeWindow(anchor, mode)

			items, fromCache, err := fetchWindow(cmd.Context(), cfg, w)
			if err != nil {
				return oo.HandleError(err)
			}
			if fromCache {
				fmt.Fprintln(os.Stderr, "queue unreachable, showing cached items")
			}

			if oo.JSON {
				return json.NewEncoder(os.Stdout).Encode(items)
			}
			pp := printers.Agenda{ShowID: showID, Loc: time.Local}
			pp.Print(w, projection.Build(items, time.Local))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Calendar mode, 'week' or 'month'.")
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Anchor date (2006-01-02), default today.")
	cmd.Flags().BoolVar(&showID, "id", false, "Show item ids.")
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

// fetchWindow lists the window from the queue, falling back to the
// offline cache when the fetch fails. Successful fetches refresh the
// cache for the next offline run.
func fetchWindow(ctx context.Context, cfg store.Config, w timeutil.Window) ([]queue.Item, bool, error) {
	client := queue.NewClient(cfg.APIBase(), cfg.Token())
	end := w.End.AddDate(0, 0, 1).Add(-time.Second)

	items, err := client.List(ctx, w.Start, end)
	if errors.Is(err, queue.ErrInvalidItem) {
		// Bad rows are dropped, the rest of the window is usable.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		err = nil
	}
	if err == nil {
		if cache, cerr := store.OpenCache(cfg.CachePath()); cerr == nil {
			_ = cache.Put(w, items)
		}
		return items, false, nil
	}

	cache, cerr := store.OpenCache(cfg.CachePath())
	if cerr != nil {
		return nil, false, err
	}
	cached, ok := cache.Get(w)
	if !ok {
		return nil, false, err
	}
	return cached, true, nil
}
