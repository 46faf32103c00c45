package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tracehound/internal/analyzer"
	"tracehound/internal/chunker"
	"tracehound/internal/filter"
	"tracehound/internal/ingest"
	"tracehound/internal/pipeline"
	slackpkg "tracehound/internal/slack"

	_ "github.com/joho/godotenv/autoload"
)

var (
	flagServices      string
	flagContext       int
	flagMaxLines      int
	flagChunkSize     int
	flagChunkUnit     string
	flagModel         string
	flagTemperature   float64
	flagAPIKey        string
	flagConcurrency   int
	flagCaseSensitive bool
	flagIncludeChunks bool
	flagPromptFile    string
	flagOut           string
	flagSource        string
	flagDDQuery       string
	flagDDWindow      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "tracehound [journal-export-file]",
	Short: "Tracehound — service-focused journalctl trace analyzer",
	Long: `Tracehound filters a journalctl text export down to the lines relevant to a
set of target services, splits them into bounded chunks, and runs a two-pass
LLM analysis (per-chunk, then one global synthesis) to produce a markdown
incident report with a ticket-ready summary.

Reads the export from the file argument, or from stdin when no file is given.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runAnalysis,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagServices, "services", "s", "", "comma-separated target service names (required)")
	rootCmd.Flags().IntVar(&flagContext, "context", 40, "context lines kept before/after each match")
	rootCmd.Flags().IntVar(&flagMaxLines, "max-lines", 20000, "filtered-lines safety cap (0 = unlimited)")
	rootCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 20000, "maximum chunk size")
	rootCmd.Flags().StringVar(&flagChunkUnit, "chunk-unit", "chars", "chunk size unit: chars or lines")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "completion model id")
	rootCmd.Flags().Float64Var(&flagTemperature, "temperature", 0.3, "sampling temperature")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides ANTHROPIC_API_KEY)")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 1, "parallel pass-1 workers")
	rootCmd.Flags().BoolVar(&flagCaseSensitive, "case-sensitive", false, "match service names case-sensitively")
	rootCmd.Flags().BoolVar(&flagIncludeChunks, "include-chunks", false, "append raw per-chunk analyses to the report")
	rootCmd.Flags().StringVar(&flagPromptFile, "prompt-file", "", "file with a pass-1 prompt template override")
	rootCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the report to this file instead of stdout")
	rootCmd.Flags().StringVar(&flagSource, "source", "file", "input source: file or datadog")
	rootCmd.Flags().StringVar(&flagDDQuery, "dd-query", "*", "Datadog logs query (datadog source)")
	rootCmd.Flags().DurationVar(&flagDDWindow, "dd-window", time.Hour, "Datadog lookback window (datadog source)")

	_ = rootCmd.MarkFlagRequired("services")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	services := filter.ParseServices(flagServices)
	if len(services) == 0 {
		return fmt.Errorf("no target services: --services must name at least one service")
	}
	if flagContext < 0 {
		return fmt.Errorf("--context must be non-negative, got %d", flagContext)
	}
	if flagChunkSize < 1 {
		return fmt.Errorf("--chunk-size must be positive, got %d", flagChunkSize)
	}
	unit, err := chunker.ParseUnit(flagChunkUnit)
	if err != nil {
		return err
	}
	if flagConcurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", flagConcurrency)
	}

	apiKey, err := analyzer.ResolveAPIKey(flagAPIKey)
	if err != nil {
		return err
	}

	analyzerCfg := analyzer.DefaultConfig(apiKey)
	if flagModel != "" {
		analyzerCfg.Model = flagModel
	}
	analyzerCfg.Temperature = flagTemperature
	analyzerCfg.Concurrency = flagConcurrency
	if flagPromptFile != "" {
		tmpl, err := os.ReadFile(flagPromptFile)
		if err != nil {
			return fmt.Errorf("reading prompt template: %w", err)
		}
		analyzerCfg.Pass1Template = string(tmpl)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines, err := loadInput(ctx, args)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		Filter: filter.Options{
			Services:      services,
			Context:       flagContext,
			MaxLines:      flagMaxLines,
			CaseSensitive: flagCaseSensitive,
		},
		Limit:         chunker.Limit{Max: flagChunkSize, Unit: unit},
		Analyzer:      analyzerCfg,
		IncludeChunks: flagIncludeChunks,
		PatternGroups: 15,
	}

	result, err := pipeline.Run(ctx, lines, analyzer.NewClient(analyzerCfg), cfg)
	if err != nil {
		return err
	}

	if err := writeReport(result.Report); err != nil {
		return err
	}

	slackCfg := slackpkg.Config{
		BotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		ChannelID: os.Getenv("SLACK_CHANNEL_ID"),
	}
	if slackCfg.Enabled() {
		if err := slackpkg.SendSummary(*result.Synthesis, slackCfg); err != nil {
			log.Err(err).Msg("Slack delivery failed, report was still written")
		}
	}

	return nil
}

func loadInput(ctx context.Context, args []string) ([]string, error) {
	if flagSource == "datadog" {
		if os.Getenv("DD_API_KEY") == "" || os.Getenv("DD_APPLICATION_KEY") == "" {
			return nil, fmt.Errorf("datadog source requires DD_API_KEY and DD_APPLICATION_KEY")
		}
		opts := ingest.DatadogOptions{
			AppKey: os.Getenv("DD_APPLICATION_KEY"),
			Query:  flagDDQuery,
			Window: flagDDWindow,
		}
		return ingest.FetchDatadogLines(ctx, ingest.NewDatadogClient(opts), opts)
	}
	if flagSource != "file" {
		return nil, fmt.Errorf("invalid --source %q (valid: file, datadog)", flagSource)
	}

	if len(args) == 1 {
		return ingest.ReadFile(args[0])
	}
	return ingest.ReadLines(os.Stdin)
}

func writeReport(text string) error {
	if flagOut == "" {
		_, err := fmt.Print(text)
		return err
	}
	if err := os.WriteFile(flagOut, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Info().Str("path", flagOut).Msg("Report written")
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
}
