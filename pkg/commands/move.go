package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/store"
)

func addMove(topLevel *cobra.Command) {
	var (
		atFlag     string
		unschedule bool
	)

	cmd := &cobra.Command{
		Use:   "move <id> [date]",
		Short: "reschedule a queued post",
		Example: `
slate move 41f2 2024-06-05
slate move 41f2 2024-06-05 --at 14:30
slate move 41f2 --unschedule
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires an item id")
			}
			if !unschedule && len(args) < 2 {
				return errors.New("requires a target date or --unschedule")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}
			client := queue.NewClient(cfg.APIBase(), cfg.Token())

			var patch queue.Patch
			if unschedule {
				patch.Unschedule = true
			} else {
				ts, err := parseSchedule(args[1], atFlag)
				if err != nil {
					return err
				}
				patch.ScheduledFor = ts
			}

			item, err := client.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return oo.HandleError(err)
			}
			if item.ScheduledFor == nil {
				fmt.Printf("%s moved to the unscheduled bucket\n", item.ID)
			} else {
				fmt.Printf("%s scheduled for %s\n", item.ID,
					item.ScheduledFor.In(time.Local).Format("Mon Jan 2 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "", "Time of day (15:04).")
	cmd.Flags().BoolVar(&unschedule, "unschedule", false, "Move to the unscheduled bucket.")

	topLevel.AddCommand(cmd)
}
