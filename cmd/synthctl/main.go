// Command synthctl is the thin CLI bootstrap around the synthetic-data core:
// it wires configuration, logging, and the target registry, and prints each
// operation's result envelope as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataforge/synthcore/internal/config"
	"github.com/dataforge/synthcore/internal/integrity"
	"github.com/dataforge/synthcore/internal/sandbox"
	"github.com/dataforge/synthcore/internal/tabular"
	"github.com/dataforge/synthcore/internal/target"
	"github.com/dataforge/synthcore/internal/target/postgres"
	"github.com/dataforge/synthcore/internal/target/s3"
	"github.com/dataforge/synthcore/internal/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "synthctl",
		Short:         "Generate, validate, analyze, and load synthetic tabular datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenerateCmd(&verbose),
		newValidateCmd(),
		newAnalyzeCmd(),
		newLoadCmd(&verbose),
	)
	return root
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

// newRegistry builds the closed set of storage targets. Registration happens
// here at startup, not in package init functions.
func newRegistry() *target.Registry {
	reg := target.NewRegistry()
	reg.Register(s3.New())
	reg.Register(postgres.New())
	return reg
}

func newGenerateCmd(verbose *bool) *cobra.Command {
	var sourcePath, outDir, subdir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Execute generation source in the restricted sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			defer logger.Sync()

			source, err := os.ReadFile(sourcePath)
			if err != nil {
				return err
			}
			cfg := config.Load()
			if outDir == "" {
				outDir = cfg.WorkspaceDir
			}
			runner := sandbox.NewRunner()
			runner.TableSuffix = cfg.TableSuffix

			res := runner.Run(cmd.Context(), string(source), outDir, subdir)
			logger.Info("generation finished",
				zap.Bool("success", res.Success),
				zap.Int("tables", len(res.SavedFiles)))
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "generation source file")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: workspace dir)")
	cmd.Flags().StringVar(&subdir, "subdir", "", "optional output subdirectory")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var dataDir, outDir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate materialized tables and persist them",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := tabular.ReadDir(dataDir)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = dataDir
			}
			return printJSON(validate.AndSave(tables, outDir))
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of table CSV files")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: data dir)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report referential and functional-dependency issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := tabular.ReadDir(dataDir)
			if err != nil {
				return err
			}
			cfg := config.Load()
			opts := integrity.DefaultOptions()
			opts.ForeignKeySuffix = cfg.ForeignKeySuffix
			opts.MaxDeterminantDistinct = cfg.MaxDeterminantDistinct

			issues := integrity.Analyze(tables, opts)
			if issues == nil {
				issues = []integrity.Issue{}
			}
			return printJSON(issues)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of table CSV files")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newLoadCmd(verbose *bool) *cobra.Command {
	var dataDir, pipelinePath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load tables into the configured storage targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			defer logger.Sync()

			tables, err := tabular.ReadDir(dataDir)
			if err != nil {
				return err
			}
			pipeline, err := config.LoadPipeline(pipelinePath)
			if err != nil {
				return err
			}

			loader := target.NewLoader(newRegistry(), logger)
			report := loader.Load(cmd.Context(), tables, pipeline.Targets)
			if err := printJSON(report); err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("one or more targets failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of table CSV files")
	cmd.Flags().StringVar(&pipelinePath, "pipeline", "", "YAML pipeline spec with target list")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
