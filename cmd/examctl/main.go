package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/service"
	"github.com/noah-isme/sma-exams-api/internal/snapshot"
	"github.com/noah-isme/sma-exams-api/pkg/config"
	"github.com/noah-isme/sma-exams-api/pkg/logger"
)

// app carries the services shared by every subcommand. They are built once the
// snapshot flag has been parsed.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	snapshotPath string

	results *service.ResultService
	exports *service.ExportService
}

type cohortFlags struct {
	exam   string
	form   string
	stream string
}

func (f cohortFlags) query() service.CohortQuery {
	return service.CohortQuery{ExamID: f.exam, FormID: f.form, StreamID: f.stream}
}

func (f *cohortFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.exam, "exam", "e", "", "exam id")
	cmd.Flags().StringVarP(&f.form, "form", "f", "", "form id")
	cmd.Flags().StringVarP(&f.stream, "stream", "s", "", "stream id (optional)")
	_ = cmd.MarkFlagRequired("exam")
	_ = cmd.MarkFlagRequired("form")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := newRootCmd(&app{cfg: cfg, logger: log}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "examctl",
		Short: "Rank and summarise exam results from a records snapshot",
		Long: `examctl derives grades, positions and distributions from a JSON snapshot
of the school's records without a database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.snapshotPath, "snapshot", a.cfg.Snapshot.Path, "path to the JSON records snapshot")

	rootCmd.AddCommand(newRankCmd(a), newSummaryCmd(a), newExportCmd(a))
	return rootCmd
}

func (a *app) load() error {
	if a.snapshotPath == "" {
		return fmt.Errorf("no snapshot given: pass --snapshot or set SNAPSHOT_PATH")
	}
	store, err := snapshot.Load(a.snapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	a.logger.Debug("snapshot loaded", zap.String("path", a.snapshotPath))

	a.results = service.NewResultService(store.Exams(), store.ExamResults(), store.Students(), store.Subjects(), nil, nil, a.logger)
	a.exports = service.NewExportService(a.results, nil, nil, service.ExportConfig{
		SchoolName: a.cfg.Exports.SchoolName,
	}, a.logger)
	return nil
}

func newRankCmd(a *app) *cobra.Command {
	var flags cohortFlags
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the ranked result sheet of a cohort",
		RunE: func(cmd *cobra.Command, _ []string) error {
			class, err := a.results.ClassResults(cmd.Context(), flags.query())
			if err != nil {
				return err
			}
			return renderDataset(cmd.OutOrStdout(), service.BuildClassDataset(class, a.cfg.Exports.SchoolName))
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var flags cohortFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the grade distribution and subject analysis of a cohort",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.results.Summary(cmd.Context(), flags.query())
			if err != nil {
				return err
			}
			return renderSummary(cmd.OutOrStdout(), summary)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  cohortFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ranked result sheet to a csv, xlsx or pdf file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := a.exports.Export(cmd.Context(), flags.query(), format)
			if err != nil {
				return err
			}
			target := out
			if target == "" {
				target = file.Filename
			}
			if err := os.WriteFile(target, file.Body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", target, len(file.Body))
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to a generated name)")
	return cmd
}
