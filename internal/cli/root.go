package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/querydsl/internal/config"
	"github.com/roach88/querydsl/internal/registry"
	"github.com/roach88/querydsl/internal/search"
)

// RootOptions holds global flags and the configuration resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config and Logger are set before any subcommand runs.
	Config config.Config
	Logger *slog.Logger

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querydsl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "querydsl",
		Short: "Compile query trees to Elasticsearch DSL",
		Long: `querydsl compiles query-builder trees into Elasticsearch query DSL,
validates their operands, and converts them to and from the compact form
used in URLs.

Settings come from flags, QUERYDSL_* environment variables and
querydsl.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)).withCode(ErrCodeInput)
			}
			cfg, err := config.Load(opts.viper, opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "load configuration", err).withCode(ErrCodeConfig)
			}
			opts.Config = cfg

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(opts.Logger)
			if cfg.File != "" {
				opts.Logger.Debug("using config file", "path", cfg.File)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default querydsl.yaml in . or $HOME/.querydsl)")
	flags.String("registry", "", "field registry file (.cue, .yaml, .json)")
	flags.String("catalog", "", "SQLite catalog used to resolve dynamic selections")
	flags.String("columns", "", "column file for sorting and source filtering")
	flags.String("endpoint", config.DefaultEndpoint, "search backend URL")
	flags.String("index", "", "search index")
	flags.Int("page-size", 0, "page size, 0 for no pagination")
	flags.StringSlice("group", nil, "restrict results to data-access groups (repeatable)")
	flags.Duration("timeout", config.DefaultTimeout, "search request timeout")

	for key, name := range map[string]string{
		config.KeyRegistry: "registry",
		config.KeyCatalog:  "catalog",
		config.KeyColumns:  "columns",
		config.KeyEndpoint: "endpoint",
		config.KeyIndex:    "index",
		config.KeyPageSize: "page-size",
		config.KeyGroups:   "group",
		config.KeyTimeout:  "timeout",
	} {
		// Lookup cannot fail for flags defined above.
		_ = opts.viper.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// runFunc is a command body. Errors it returns are written once through
// the formatter.
type runFunc func(cmd *cobra.Command, args []string, out *OutputFormatter) error

// run adapts fn to cobra. Every error leaves as a reported *ExitError.
func (o *RootOptions) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out := o.formatter(cmd)
		err := fn(cmd, args, out)
		if err == nil {
			return nil
		}

		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			exitErr = WrapExitError(ExitCommandError, "command failed", err)
		}
		if !exitErr.reported {
			_ = out.Error(errorCode(err), err.Error(), nil)
			exitErr.reported = true
		}
		return exitErr
	}
}

// errorCode picks the output code for err.
func errorCode(err error) string {
	var loadErr *registry.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var backendErr *search.BackendError
	if errors.As(err, &backendErr) {
		return ErrCodeSearch
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode
	}
	return ErrCodeGeneric
}

// Reported reports whether err was already written by a command, so the
// caller only has to exit.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}
