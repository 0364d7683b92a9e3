// Command m3c-graph builds the consortium graph as N-Triples files and
// computes change sets between runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"m3c/internal/blob"
	"m3c/internal/config"
	"m3c/internal/failure"
	"m3c/internal/infra/database"
	"m3c/internal/logging"
	"m3c/internal/metrics"
	"m3c/internal/pipeline"
	"m3c/internal/pubmed"
	"m3c/internal/snapshot"
	"m3c/internal/source"
	"m3c/internal/toolcfg"
)

const appName = "m3c-graph"

// Version is stamped at build time with -ldflags.
var Version = "dev"

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// cli runs the command tree and maps the outcome to an exit status.
func cli(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		for _, detail := range failure.Details(err) {
			_, _ = fmt.Fprintf(stderr, "Detail: %s\n", detail)
		}
		if hint := failure.Hint(err); hint != "" {
			_, _ = fmt.Fprintf(stderr, "Hint: %s\n", hint)
		}
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Build the metabolomics consortium graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(generateCmd(), diffCmd(), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <previous-dir> <current-dir>",
		Short: "Write add.nt and sub.nt into current-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := snapshot.DiffDirs(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := snapshot.WriteDelta(args[1], delta); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "add: %d\nsub: %d\n", len(delta.Add), len(delta.Sub))
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var configPath, previous, person string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate today's statement files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd.Context(), cmd.OutOrStdout(), configPath, previous, person)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")
	cmd.Flags().StringVar(&previous, "diff", "", "previous output directory to compute add/sub against")
	cmd.Flags().StringVar(&person, "person", "", "only search PubMed for this person's publications, written to <id>_pubs.nt")
	cmd.MarkFlagsMutuallyExclusive("person", "diff")
	return cmd
}

func generate(ctx context.Context, stdout io.Writer, configPath, previous, person string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.Init(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logging.Sync()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	rec := metrics.New(runID)

	workbench, err := database.Open(ctx, cfg.Workbench.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("workbench database: %w", err)
	}
	defer func() { _ = workbench.Close() }()
	supplemental, err := database.Open(ctx, cfg.Supplemental.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("supplemental database: %w", err)
	}
	defer func() { _ = supplemental.Close() }()

	photos, err := blob.Open(ctx, cfg.Photos.BlobConfig())
	if err != nil {
		return fmt.Errorf("photo store: %w", err)
	}
	embargoed, err := pipeline.ReadEmbargoList(cfg.Embargoed)
	if err != nil {
		return err
	}

	pmCfg := cfg.PubMed.ClientConfig()
	pmCfg.Logger = logger
	pm := pubmed.NewClient(pmCfg)
	tools := toolcfg.NewLoader(logger, pm)

	p := pipeline.New(pipeline.Deps{
		Source:  source.NewSQL(workbench, supplemental),
		Photos:  photos,
		Tools:   tools,
		PubMed:  pm,
		Logger:  logger,
		Metrics: rec,
	}, pipeline.Options{
		Namespace: cfg.Namespace,
		OutputDir: cfg.OutputDir,
		Embargoed: embargoed,
		ToolsYAML: cfg.Tools.YAML,
		ToolsCSV:  cfg.Tools.CSV,

		SearchPublications: cfg.PubMed.Search,
		PersonID:           person,
	})

	started := time.Now()
	res, runErr := p.Run(ctx, previous)
	if cfg.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}
	if runErr != nil {
		logger.Error("run failed",
			zap.Stringer("class", failure.ClassOf(runErr)),
			zap.String("hint", failure.Hint(runErr)),
			zap.Error(runErr))
		return runErr
	}
	logger.Info("run complete", zap.String("dir", res.Dir), zap.Duration("took", time.Since(started)))
	return report(stdout, res)
}

func report(w io.Writer, res pipeline.Result) error {
	categories := make([]string, 0, len(res.Counts))
	for c := range res.Counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	var errs []error
	_, err := fmt.Fprintf(w, "output: %s\n", res.Dir)
	errs = append(errs, err)
	for _, c := range categories {
		_, err = fmt.Fprintf(w, "%s: %d\n", c, res.Counts[c])
		errs = append(errs, err)
	}
	if res.Delta != nil {
		_, err = fmt.Fprintf(w, "add: %d\nsub: %d\n", len(res.Delta.Add), len(res.Delta.Sub))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
