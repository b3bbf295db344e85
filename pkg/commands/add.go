package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/store"
	"tableflip.dev/slate/pkg/timeutil"
)

func addAdd(topLevel *cobra.Command) {
	var (
		platformFlag string
		onFlag       string
		atFlag       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "queue a new post",
		Example: `
slate add hello world
slate add --platform bluesky --on 2024-06-05 --at 14:30 launch day
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires post content")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}

			platform := cfg.DefaultPlatform()
			if platformFlag != "" {
				platform = queue.Platform(strings.ToLower(platformFlag))
				if !platform.Valid() {
					return fmt.Errorf("unknown platform %q", platformFlag)
				}
			}

			scheduledFor, err := parseSchedule(onFlag, atFlag)
			if err != nil {
				return err
			}

			client := queue.NewClient(cfg.APIBase(), cfg.Token())
			engine := sched.New(client, time.Local)
			err = engine.Apply(cmd.Context(), sched.Create(queue.Draft{
				Platform:     platform,
				Content:      strings.Join(args, " "),
				ScheduledFor: scheduledFor,
			}))
			return oo.HandleError(err)
		},
	}

	cmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "Target platform.")
	cmd.Flags().StringVar(&onFlag, "on", "", "Schedule on a day (2006-01-02).")
	cmd.Flags().StringVar(&atFlag, "at", "", "Time of day (15:04), used with --on.")

	topLevel.AddCommand(cmd)
}

// parseSchedule turns --on/--at into a timestamp. No --on means the
// post lands in the unscheduled bucket; --on alone takes the default
// morning slot.
func parseSchedule(on, at string) (*time.Time, error) {
	if on == "" {
		if at != "" {
			return nil, errors.New("--at requires --on")
		}
		return nil, nil
	}
	day, err := timeutil.ParseDateKey(on, time.Local)
	if err != nil {
		return nil, err
	}
	if at == "" {
		ts := timeutil.CombineDayTime(day, nil)
		return &ts, nil
	}
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("--at must look like 14:30, got %q", at)
	}
	ts := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	return &ts, nil
}
