package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/transaction-enricher/internal/categories"
	"github.com/dvloznov/transaction-enricher/internal/config"
	"github.com/dvloznov/transaction-enricher/internal/enrich"
	"github.com/dvloznov/transaction-enricher/internal/gcs"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/dvloznov/transaction-enricher/internal/provider"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "cli",
		Short:        "Enrich bank transaction batches with a language model",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	root.AddCommand(newCategorizeCmd(flags), newPromptCmd())
	return root
}

func newCategorizeCmd(flags *globalFlags) *cobra.Command {
	var (
		source    string
		anonymous bool
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize a batch file (local path or gs:// URI) and print the enriched JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			batch, err := readBatch(ctx, source, anonymous)
			if err != nil {
				return err
			}

			p, err := provider.New(ctx, cfg)
			if err != nil {
				return err
			}

			var opts []enrich.Option
			if cfg.CategoryTable != "" {
				table, err := categories.Load(cfg.CategoryTable)
				if err != nil {
					return err
				}
				opts = append(opts, enrich.WithReference(table))
			}

			res, err := enrich.NewGateway(cfg, p, log, opts...).Categorize(ctx, batch)
			if err != nil {
				return fmt.Errorf("categorize (%s): %w", enrich.KindOf(err), err)
			}

			log.Info().
				Str("provider", p.Name()).
				Dur("latency", res.ProviderLatency).
				Int("fallbacks", res.Fallbacks).
				Msg("Batch enriched")

			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.RawText)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(res.Batch))
			return err
		},
	}
	cmd.Flags().StringVarP(&source, "file", "f", "", "Batch JSON file path or gs://bucket/object URI")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "Read gs:// objects without credentials")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the model reply as received, before fence stripping and fallback fills")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPromptCmd() *cobra.Command {
	var source, tablePath string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the system and user instructions for a batch without calling a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readBatch(cmd.Context(), source, false)
			if err != nil {
				return err
			}

			var ref enrich.Reference
			if tablePath != "" {
				table, err := categories.Load(tablePath)
				if err != nil {
					return err
				}
				ref = table
			}

			p, err := enrich.BuildPrompt(batch, ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== system ===")
			fmt.Fprintln(out, p.System)
			fmt.Fprintln(out, "=== user ===")
			fmt.Fprint(out, p.User)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "file", "f", "", "Batch JSON file path or gs://bucket/object URI")
	cmd.Flags().StringVar(&tablePath, "categories", "", "Optional category reference table (YAML, JSON or TOML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readBatch loads a batch from a local file or, for gs:// sources, from
// Cloud Storage.
func readBatch(ctx context.Context, source string, anonymous bool) ([]byte, error) {
	if !gcs.IsURI(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read batch: %w", err)
		}
		return data, nil
	}

	var opts []option.ClientOption
	if anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}

	fetcher, err := gcs.NewFetcher(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	return fetcher.Fetch(ctx, source)
}
