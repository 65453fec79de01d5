package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/henriquecf/i18n-parser/internal/config"
	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/rules"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds flag values. Zero values leave the configuration untouched.
type options struct {
	locales       []string
	defaultLocale string
	out           string
	format        string
	mode          string
	rules         string
	workers       int
	dryRun        bool
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "i18n-parser",
		Short: "Extract translatable text from ERB templates into locale files",
		Long: `Finds human-readable text in ERB templates, replaces it with lazy
lookup calls such as t(".key") and writes the extracted keys to locale
documents for every configured locale.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Rewrite templates with lookup calls and write locale documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.locales, "locales", nil, "extra locales to emit, comma separated")
	f.StringVar(&opts.defaultLocale, "default-locale", "", "locale holding the extracted text")
	f.StringVar(&opts.out, "out", "", "directory for locale documents")
	f.StringVar(&opts.format, "format", "", "locale document format: yaml, toml or json")
	f.StringVar(&opts.mode, "mode", "", "rewrite engine: spans or fold")
	f.StringVar(&opts.rules, "rules", "", "YAML file with extra classification rules")
	f.IntVar(&opts.workers, "workers", 0, "number of templates processed in parallel")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing files")
	return cmd
}

func scanCmd() *cobra.Command {
	opts := &options{}
	var asJSON, explain bool

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "List the text that extract would replace, without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.OutOrStdout(), args[0], opts, asJSON, explain)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.rules, "rules", "", "YAML file with extra classification rules")
	f.IntVar(&opts.workers, "workers", 0, "number of templates processed in parallel")
	f.BoolVar(&asJSON, "json", false, "print records as JSON")
	f.BoolVar(&explain, "explain", false, "log rejected text nodes with the rule that rejected them")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <locale-file>",
		Short: "Load a locale document the way go-i18n does and report its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), args[0])
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// loadConfig reads the environment, applies flag overrides and validates the
// result. It also sets the global log level.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Load()

	if len(opts.locales) > 0 {
		cfg.Locales = opts.locales
	}
	if opts.defaultLocale != "" {
		cfg.DefaultLocale = opts.defaultLocale
	}
	if opts.out != "" {
		cfg.LocaleDir = opts.out
	}
	if opts.format != "" {
		cfg.LocaleFormat = opts.format
	}
	if opts.mode != "" {
		cfg.RewriteMode = opts.mode
	}
	if opts.rules != "" {
		cfg.RulesFile = opts.rules
	}
	if opts.workers > 0 {
		cfg.WorkerCount = opts.workers
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newParser builds the template parser from the configured ruleset and mode.
func newParser(cfg *config.Config) (*parser.ERBParser, error) {
	mode, err := parser.ParseMode(cfg.RewriteMode)
	if err != nil {
		return nil, err
	}

	rs := rules.Default()
	if cfg.RulesFile != "" {
		rs, err = rules.Load(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		log.Info().Str("file", cfg.RulesFile).Str("version", rs.Version).Msg("Loaded rules")
	}

	return parser.NewERBParser(rs, mode), nil
}
