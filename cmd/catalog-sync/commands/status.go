package commands

import (
	"errors"
	"fmt"

	"catalog-sync/internal/report"
	"catalog-sync/internal/store"
	"catalog-sync/internal/timezone"

	"github.com/spf13/cobra"
)

var recent int

func init() {
	statusCmd.Flags().IntVar(&recent, "recent", 10, "number of latest transitions to list")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--recent n]",
	Short: "Prints snapshot totals and the most recent status changes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		clock, err := timezone.Load(cfg.Timezone)
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cfg, clock)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.Load(cmd.Context())
		if errors.Is(err, store.ErrNoSnapshot) {
			fmt.Fprintln(cmd.OutOrStdout(), "no snapshot yet, run `catalog-sync sync` first")
			return nil
		}
		if err != nil {
			return err
		}

		report.RenderStatus(cmd.OutOrStdout(), snap, clock, recent)
		return nil
	},
}
