package commands

import (
	"catalog-sync/internal/config"
	"catalog-sync/internal/domain"
	"catalog-sync/internal/httpx"
	"catalog-sync/internal/providers/mftplus"
	"catalog-sync/internal/report"
	"catalog-sync/internal/sftpclient"
	"catalog-sync/internal/sync"
	"catalog-sync/internal/timezone"

	"github.com/spf13/cobra"
)

var (
	filterFlags domain.Filter
	maxPages    int
	dryRun      bool
	publish     bool
)

func init() {
	f := syncCmd.Flags()
	f.StringSliceVar(&filterFlags.Places, "place", nil, "restrict to place ids (repeatable)")
	f.StringSliceVar(&filterFlags.Departments, "department", nil, "restrict to department ids (repeatable)")
	f.StringSliceVar(&filterFlags.Groups, "group", nil, "restrict to group ids (repeatable)")
	f.StringSliceVar(&filterFlags.Courses, "course", nil, "restrict to course ids (repeatable)")
	f.StringSliceVar(&filterFlags.Months, "month", nil, "restrict to months (repeatable)")
	f.StringVar(&filterFlags.Sort, "sort", "", "sort key sent to the search endpoint")
	f.StringVar(&filterFlags.Type, "type", "", "course type sent to the search endpoint (default all)")
	f.IntVar(&maxPages, "max-pages", -1, "stop after this many pages, 0 for no cap (default from config)")
	f.BoolVar(&dryRun, "dry-run", false, "reconcile and print the summary without saving anything")
	f.BoolVar(&publish, "sftp", false, "upload the snapshot and change log over SFTP after saving")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [--place id]... [--dry-run] [--sftp]",
	Short: "Fetches the catalog, reconciles it against the stored snapshot and records the changes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if maxPages >= 0 {
			cfg.MaxPages = maxPages
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		clock, err := timezone.Load(cfg.Timezone)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg, clock)
		if err != nil {
			return err
		}
		defer st.Close()

		changes := report.NewChangeLog(cfg.LogFile, clock)
		runner := &sync.Runner{
			Provider: mftplus.Provider{
				C:      mftplus.New(clientOptions(cfg)),
				Logger: logger.With().Str("component", "mftplus").Logger(),
			},
			Store:    st,
			Reporter: changes,
			Fetch: sync.FetchOptions{
				PageSize:      cfg.PageSize,
				MaxEmptyPages: cfg.MaxEmptyPages,
				MaxPages:      cfg.MaxPages,
				Delay:         cfg.PageDelay.Std(),
			},
			SiteURL: cfg.SiteURL,
			Logger:  logger.With().Str("component", "sync").Logger(),
			Now:     clock.Now,
			DryRun:  dryRun,
		}

		filter, err := selectFilter(cfg.Filter)
		if err != nil {
			return err
		}

		sum, err := runner.Run(ctx, filter)
		report.RenderSummary(cmd.OutOrStdout(), sum, clock)
		if err != nil {
			return err
		}

		if publish && sum.Committed {
			files := append(st.Artifacts(), changes.Artifacts()...)
			err := sftpclient.Publish(ctx, sftpConfig(cfg), files, logger.With().Str("component", "sftp").Logger())
			if err != nil {
				// the snapshot is already committed; the next run republishes
				logger.Error().Err(err).Msg("publish failed")
			}
		}
		return nil
	},
}

// selectFilter lays the filter flags over the config file's filter. Flags
// left unset are zero and keep the file's value.
func selectFilter(fromConfig domain.Filter) (domain.Filter, error) {
	return config.MergeFilter(fromConfig, filterFlags)
}

func clientOptions(cfg config.Config) mftplus.ClientOptions {
	retry := httpx.DefaultRetryConfig()
	retry.MaxAttempts = cfg.RetryCount + 1
	return mftplus.ClientOptions{
		APIURL:   cfg.APIURL,
		SiteURL:  cfg.SiteURL,
		Timeout:  cfg.RequestTimeout.Std(),
		MaxConns: cfg.MaxConns,
		Retry:    retry,
	}
}

func sftpConfig(cfg config.Config) sftpclient.Config {
	return sftpclient.Config{
		Host:                  cfg.SFTP.Host,
		Port:                  cfg.SFTP.Port,
		User:                  cfg.SFTP.User,
		Pass:                  cfg.SFTP.Pass,
		RemoteDir:             cfg.SFTP.Dir,
		InsecureIgnoreHostKey: cfg.SFTP.InsecureIgnoreHostKey,
	}
}
