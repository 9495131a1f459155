// Package cli provides the vaultrunner command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vaultrunner/internal/cli/config"
	"vaultrunner/internal/render"
)

// Version is set at build time.
var Version = "0.3.0"

type (
	configKey   struct{}
	rendererKey struct{}
	loggerKey   struct{}
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "vaultrunner",
		Short: "Vault Runner - a tiny language for a grid-walking bot",
		Long: `Vault Runner compiles programs written in a small keyword language and
runs them against a grid world: the bot moves, turns, picks up keys and
opens doors until it ends, finishes or runs out of steps.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			renderer := render.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(),
				render.Mode(cfg.Output), render.ColorMode(cfg.Color))
			logger := newLogger(cfg, cmd.ErrOrStderr())

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./vaultrunner.yaml)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")
	pf.StringP("output", "o", "", "Output format (auto|text|json)")
	pf.String("color", "", "Colour output (auto|always|never)")
	pf.Bool("no-history", false, "Do not record runs")
	pf.String("history-path", "", "Path to the run history database")

	_ = rootCmd.RegisterFlagCompletionFunc("output", fixedCompletions("auto", "text", "json"))
	_ = rootCmd.RegisterFlagCompletionFunc("color", fixedCompletions("auto", "always", "never"))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", fixedCompletions("debug", "info", "warn", "error"))

	rootCmd.AddCommand(
		newRunCommand(),
		newAnimateCommand(),
		newCheckCommand(),
		newTokensCommand(),
		newFmtCommand(),
		newExamplesCommand(),
		newMapsCommand(),
		newREPLCommand(),
		newWatchCommand(),
		newHistoryCommand(),
		newServeCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)
	return rootCmd
}

func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	return exitCode(rootCmd.ErrOrStderr(), err)
}

// exitCode prints err unless it was already reported and maps it to a code.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		if !ee.Reported && ee.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %v\n", ee.Err)
		}
		return ee.Code
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return ExitFailure
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *render.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*render.Renderer); ok {
		return r
	}
	return render.NewRenderer(os.Stdout, os.Stderr, render.ModeAuto, render.ColorAuto)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vaultrunner v%s\n", Version)
		},
	}
}

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for vaultrunner.

Bash:
  $ source <(vaultrunner completion bash)

Zsh:
  $ vaultrunner completion zsh > "${fpath[1]}/_vaultrunner"

Fish:
  $ vaultrunner completion fish | source

PowerShell:
  PS> vaultrunner completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
