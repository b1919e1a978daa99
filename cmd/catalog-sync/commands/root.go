package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"catalog-sync/internal/config"
	"catalog-sync/internal/store"
	"catalog-sync/internal/timezone"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	storeKind  string
	logLevel   string
	prettyLogs bool

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "catalog-sync",
	Short:         "catalog-sync keeps a local snapshot of the mftplus course catalog up to date.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(cmd.ErrOrStderr(), logLevel, prettyLogs)
		if err != nil {
			return err
		}
		logger = l
		log.Logger = l
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "catalog-sync.json5", "JSON5 config file; a .local variant next to it overrides it")
	pf.StringVar(&storeKind, "store", "", "snapshot store: csv or sqlite (default from config)")
	pf.StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	pf.BoolVar(&prettyLogs, "pretty", false, "human readable console logs")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "catalog-sync").Logger(), nil
}

// loadConfig resolves env, config file and the persistent flags, in that order.
func loadConfig() (config.Config, error) {
	cfg, err := config.Resolve(configPath, false)
	if err != nil {
		return cfg, err
	}
	if storeKind != "" {
		cfg.Store = storeKind
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config, clock timezone.Clock) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return store.OpenSQLite(ctx, cfg.DBFile, clock)
	case config.StoreCSV:
		return store.NewFileStore(cfg.CSVFile, cfg.JSONFile, clock), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
