// Package main provides the slack-cli entry point.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/matsen/slack-cli/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// app carries the command line and the standard streams, which tests replace.
type app struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
	opts        options
}

func init() {
	// Load .env file if present (for SLACK_CLI_TOKEN)
	_ = godotenv.Load()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
	code := execute(ctx, a, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	cmd := NewRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	code := reportError(a.stderr, err)
	var usage *usageError
	if errors.As(err, &usage) {
		cmd.Usage()
	}
	return code
}

// NewRootCmd constructs the root command; exposed for unit testing.
func NewRootCmd(a *app) *cobra.Command {
	o := &a.opts

	cmd := &cobra.Command{
		Use:   "slack-cli [flags] [messages...]",
		Short: "Send, pipe, upload and receive Slack messages from the CLI",
		Long: `slack-cli sends, pipes, uploads and receives Slack messages.

Channels, private groups and users are addressed by name. Names are resolved
through a local id cache (see --save-cache) or, failing that, the Slack API.

Examples:
  slack-cli -d general "Hello everyone"
  echo "build finished" | slack-cli -d general
  slack-cli -d general --run "uptime"
  slack-cli -d alice -f report.pdf
  slack-cli -s general --last 10
  slack-cli --save-cache

The token is read from --token, SLACK_CLI_TOKEN (also from a .env file), or the
token saved for the last used team.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.messages = args
			o.lastSet = cmd.Flags().Changed("last")
			if err := validateArgs(o); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(a.stderr, cfg.LogLevel, o.debug)
			return a.run(cmd.Context(), cfg, logger)
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	f := cmd.Flags()
	f.StringVarP(&o.dst, "dst", "d", "", "Send message to a Slack channel, group or username")
	f.StringVarP(&o.file, "file", "f", "", "Upload file")
	f.BoolVar(&o.pre, "pre", false, "Send messages as verbatim code blocks")
	f.BoolVar(&o.run, "run", false, "Run the message as a shell command and send both the message and the command output")
	f.StringArrayVarP(&o.src, "src", "s", nil, "Receive messages from a Slack channel, group or username (repeatable)")
	f.IntVarP(&o.last, "last", "l", 0, "Print the last N messages")
	f.BoolVar(&o.saveCache, "save-cache", false, "Create source id cache")
	f.StringVarP(&o.token, "token", "t", "", "Explicitly specify Slack API token, which will be saved for the team")
	f.StringVarP(&o.team, "team", "T", "", "Team domain to interact with (xxx in https://xxx.slack.com); defaults to the last used team")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")

	cmd.Version = Version
	return cmd
}

// newLogger writes human-readable logs to w. --debug overrides log_level.
func newLogger(w io.Writer, levelName string, debug bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).Level(level).With().Timestamp().Logger()
	logger.Debug().Msg("debug logging enabled")
	return logger
}
