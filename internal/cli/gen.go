package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitmix/pkg/compose"
	"github.com/matzehuels/traitmix/pkg/errors"
	"github.com/matzehuels/traitmix/pkg/observability"
	"github.com/matzehuels/traitmix/pkg/pipeline"
)

// genFlags holds the flags of the gen command.
type genFlags struct {
	opts        pipeline.Options
	metricsFile string
}

// genCommand creates the gen command: clean the output folder and generate
// every project in the config folder.
func (c *CLI) genCommand() *cobra.Command {
	var flags genFlags

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate unique images for every project in the config folder",
		Long: `Generate unique images for every project in the config folder.

The output folder is removed and recreated first. Each project writes
<fingerprint>.png and <fingerprint>.json files into its own subfolder, plus
rarity.json and _metadata.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGen(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.opts.ConfigDir, "config-folder", "c", pipeline.DefaultConfigDir, "folder with project config files")
	f.StringVarP(&flags.opts.BlacklistFile, "bl-file", "b", pipeline.DefaultBlacklistFile, "blacklist config file")
	f.BoolVar(&flags.opts.BlacklistCaseSensitive, "bl-case-sen", false, "match blacklist trait names case-sensitively")
	f.StringVarP(&flags.opts.OutputDir, "output", "o", pipeline.DefaultOutputDir, "output folder")
	f.Uint64Var(&flags.opts.Seed, "seed", 0, "random seed (0 picks one and logs it)")
	f.StringVar(&flags.opts.Scope, "scope", pipeline.ScopeRun, "uniqueness scope: run or project")
	f.StringVar(&flags.opts.Store, "store", pipeline.StoreMemory, "fingerprint store: memory, redis or sqlite")
	f.StringVar(&flags.opts.RedisURL, "redis-url", "", "redis url for the redis store (env "+envRedisURL+")")
	f.StringVar(&flags.opts.RedisKey, "redis-key", "", "redis set holding fingerprints")
	f.StringVar(&flags.opts.SQLitePath, "sqlite-path", "", "database file for the sqlite store (env "+envSQLitePath+")")
	f.IntVar(&flags.opts.Concurrency, "projects", 0, "projects generated at once (0 = all)")
	f.IntVarP(&flags.opts.Workers, "workers", "w", 0, "images encoded at once (0 = GOMAXPROCS)")
	f.BoolVar(&flags.opts.FailFast, "fail-fast", false, "stop every project on the first failure")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

func (c *CLI) runGen(cmd *cobra.Command, flags genFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := newPrinter(cmd.OutOrStdout())

	opts := flags.opts
	opts.Logger = logger
	opts.RedisURL = envOr(opts.RedisURL, envRedisURL)
	opts.SQLitePath = envOr(opts.SQLitePath, envSQLitePath)
	if opts.Store == pipeline.StoreSQLite && opts.SQLitePath == "" {
		opts.SQLitePath = defaultSQLitePath()
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	var prom *observability.Prometheus
	if flags.metricsFile != "" {
		prom = observability.NewPrometheus(nil)
		observability.SetGenerationHooks(prom)
		observability.SetComposeHooks(prom)
		defer observability.Reset()
	}

	if err := compose.Reset(opts.OutputDir); err != nil {
		return err
	}
	logger.Debug("output folder reset", "path", opts.OutputDir)

	st := startStage(logger, "gen")
	result, runErr := c.newRunner().Execute(ctx, opts)
	if result != nil {
		st.done(runErr, "projects", len(result.Projects), "images", result.Stats.Accepted)
	} else {
		st.done(runErr)
	}

	if prom != nil {
		if err := prom.WriteTextfile(flags.metricsFile); err != nil {
			logger.Warn("could not write metrics", "path", flags.metricsFile, "err", err)
		} else {
			logger.Debug("metrics written", "path", flags.metricsFile)
		}
	}

	if result != nil {
		printGenSummary(out, result, opts.OutputDir)
	}
	if runErr == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	failures := errors.Split(runErr)
	for _, e := range failures {
		out.failure("%s", errors.UserMessage(e))
	}
	if result == nil {
		return fmt.Errorf("generation failed")
	}
	return fmt.Errorf("%d of %d projects failed", len(result.Failed()), len(result.Projects))
}

func printGenSummary(out printer, result *pipeline.Result, outputDir string) {
	out.newline()
	for _, p := range result.Projects {
		if p.Err != nil {
			out.warning("%s: generated %d of %d", p.Name, len(p.Accepted), amountOf(p))
			continue
		}
		out.success("%s: %s images", p.Name, StyleNumber.Render(fmt.Sprint(len(p.Accepted))))
		out.stats(p.Stats.Attempts, p.Stats.Blacklisted, p.Stats.Duplicates)
		out.path(filepath.Join(outputDir, p.Name))
	}
	out.newline()
	out.keyValue("Run", result.RunID)
	out.keyValue("Seed", fmt.Sprint(result.Seed))
	if len(result.Failed()) == 0 {
		out.nextStep("Inspect the catalogs", appName+" inspect")
	} else {
		out.nextStep("Check the catalog sizes", appName+" inspect")
	}
}

func amountOf(p pipeline.ProjectResult) int {
	if p.Config == nil {
		return 0
	}
	return p.Config.Amount
}
