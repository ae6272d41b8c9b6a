package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/creator-sync/internal/airtable"
	"github.com/pdiddy/creator-sync/internal/kvstore"
	"github.com/pdiddy/creator-sync/internal/ledger"
	"github.com/pdiddy/creator-sync/internal/pipeline"
	"github.com/pdiddy/creator-sync/internal/producer"
	"github.com/pdiddy/creator-sync/internal/sink"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync over every configured seed",
	Long: `Run invokes the scraping job once per search term and hashtag, then
normalizes, filters and deduplicates the returned profiles. New profiles are
upserted into the store table and appended to the dataset sink. The ledger of
emitted handles is saved before the command exits, including on Ctrl-C.

Flags override the config file and CREATOR_SYNC_* environment variables.`,
	RunE: runSync,
}

func init() {
	f := runCmd.Flags()
	f.StringSlice("term", nil, "search-term seed (repeatable)")
	f.StringSlice("hashtag", nil, "hashtag seed, leading # optional (repeatable)")
	f.Int("max-items", 0, "records requested per seed (default 50)")
	f.Int64("min-followers", 0, "inclusive lower follower bound (default 1000)")
	f.Int64("max-followers", 0, "inclusive upper follower bound, 0 for none (default 100000)")
	f.Bool("require-target-country", false, "keep only profiles that look US-based")
	f.Bool("dry-run", false, "never call the store; filtering, ledger and sink still run")
	f.Bool("check-only", false, "create missing store rows but leave existing rows untouched")
	f.Bool("no-store", false, "disable store sync")
	f.String("report", "", "write a YAML run report to this path")

	viper.BindPFlag("seeds.terms", f.Lookup("term"))
	viper.BindPFlag("seeds.hashtags", f.Lookup("hashtag"))
	viper.BindPFlag("seeds.max_items", f.Lookup("max-items"))
	viper.BindPFlag("filter.min_followers", f.Lookup("min-followers"))
	viper.BindPFlag("filter.max_followers", f.Lookup("max-followers"))
	viper.BindPFlag("filter.require_target_country", f.Lookup("require-target-country"))
	viper.BindPFlag("run.dry_run", f.Lookup("dry-run"))
	viper.BindPFlag("run.report", f.Lookup("report"))

	rootCmd.AddCommand(runCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if checkOnly, _ := cmd.Flags().GetBool("check-only"); checkOnly {
		cfg.Store.Upsert = false
	}
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		cfg.Store.Enabled = false
	}

	if err := pipeline.Validate(cfg); err != nil {
		return err
	}
	resolveStoreSync(&cfg, logger)
	if cfg.Producer.Token == "" {
		logger.Warn("no producer token configured; set producer.token or .secrets/producer-token")
	}

	ctx := cmd.Context()

	kv, err := kvstore.Open(ctx, cfg.Ledger)
	if err != nil {
		return fmt.Errorf("opening ledger store: %w", err)
	}
	defer kv.Close()

	seen, err := ledger.Load(ctx, kv, cfg.Ledger.Key)
	if err != nil {
		return err
	}

	out, err := sink.Open(ctx, cfg.Sink)
	if err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}
	defer out.Close()

	var store pipeline.RecordStore
	if cfg.Store.Enabled {
		store = airtable.New(cfg.Store, nil, logger)
	}

	orch := pipeline.New(producer.NewActorClient(cfg.Producer, nil, logger), seen, store, out, cfg, logger)
	sum, runErr := orch.Run(ctx)

	w := cmd.OutOrStdout()
	pipeline.FormatSummary(sum, w)

	if cfg.Run.Report != "" {
		if err := pipeline.WriteReport(cfg.Run.Report, pipeline.NewReport(cfg, sum, runErr)); err != nil {
			logger.Warn("could not write run report", zap.String("path", cfg.Run.Report), zap.Error(err))
		} else {
			fmt.Fprintf(w, "Report written to %s\n", cfg.Run.Report)
		}
	}

	if runErr != nil {
		return runErr
	}
	if sum.Seeds > 0 && sum.SeedsFailed == sum.Seeds {
		return fmt.Errorf("all %d seed(s) failed", sum.Seeds)
	}
	return nil
}
