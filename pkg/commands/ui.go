package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/slate/pkg/store"
	"tableflip.dev/slate/pkg/tui/app"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the calendar user interface",
		Example: `
slate ui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}
			return app.Run(context.Background(), cfg)
		},
	}

	topLevel.AddCommand(cmd)
}
