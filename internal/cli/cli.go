package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/emu-alert/internal/config"
	"github.com/pfrederiksen/emu-alert/internal/logger"
	"github.com/pfrederiksen/emu-alert/internal/notifier"
	"github.com/pfrederiksen/emu-alert/internal/telegram"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

const successMessage = "Message sent successfully!"

// UsageError reports a wrong command line.
type UsageError struct {
	Args int
	Err  error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("expected exactly one argument (the message text), got %d", e.Args)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

type options struct {
	envFile string
	dryRun  bool
}

// NewRootCmd creates the root command. Help and dry-run output go to stdout,
// logs to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "emu-alert <message>",
		Short: "Send a single alert message to a Telegram chat",
		Long: `Send a single alert message to a Telegram chat via the Bot API.

The message is sent with parse_mode=HTML, so <b>, <i>, <code> and links work.
A single argument is always the message text, even if it starts with "-".
When combining flags with a message that starts with "-", put "--" before it:
  emu-alert --dry-run -- '-5C freezer alarm'

Credentials are read from the environment:
  ` + config.EnvBotToken + `  Telegram bot token (required)
  ` + config.EnvChatID + `    destination chat ID (required)`,
		Version:       Version,
		Args:          exactlyOneArg,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args[0])
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Args: -1, Err: err}
	})

	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this dotenv file first")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the request instead of sending it")

	return cmd
}

func exactlyOneArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &UsageError{Args: len(args)}
	}
	return nil
}

// runSend is the main command logic
func runSend(ctx context.Context, out, logOut io.Writer, opts *options, text string) error {
	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return err
		}
	}

	if opts.dryRun {
		return notifier.NewDryRunNotifier(out, config.LoadPartial().ChatID).Notify(ctx, text)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", config.ErrInvalid, config.EnvLogLevel, err)
	}
	logger.SetDefault(logger.New(level, logOut))

	client, err := telegram.NewClient(cfg.BotToken, cfg.ChatID,
		telegram.WithBaseURL(cfg.APIURL),
		telegram.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("initializing Telegram client: %w", err)
	}

	if err := notifier.NewTelegramNotifier(client).Notify(ctx, text); err != nil {
		logger.Error("Send failed", logger.Fields{"kind": telegram.KindOf(err).String()}, err)
		return err
	}

	logger.Info("Message delivered", logger.Fields{"chat_id": cfg.ChatID})
	fmt.Fprintln(out, successMessage)
	return nil
}

// Run executes the CLI with args (excluding the program name) and returns
// the process exit code. Every outcome prints one report to stdout.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}

	cmd := NewRootCmd(stdout, stderr)
	args, err := messageArgs(cmd, args)
	if err != nil {
		report(stdout, err)
		return ExitError
	}
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		report(stdout, err)
		return ExitError
	}
	return ExitSuccess
}

// messageArgs makes a lone argument the message even when it starts with "-".
// A lone argument that names a flag exactly leaves no message at all.
func messageArgs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) != 1 || !strings.HasPrefix(args[0], "-") || args[0] == "--" {
		return args, nil
	}
	if isFlag(cmd, args[0]) {
		return nil, &UsageError{Err: fmt.Errorf("%s given without a message", args[0])}
	}
	return []string{"--", args[0]}, nil
}

func isFlag(cmd *cobra.Command, arg string) bool {
	cmd.InitDefaultHelpFlag()
	cmd.InitDefaultVersionFlag()

	if name, ok := strings.CutPrefix(arg, "--"); ok {
		name, _, _ = strings.Cut(name, "=")
		return cmd.Flags().Lookup(name) != nil
	}
	short := strings.TrimPrefix(arg, "-")
	return len(short) == 1 && cmd.Flags().ShorthandLookup(short) != nil
}

// report turns a failure into the line the user sees.
func report(out io.Writer, err error) {
	var (
		usage   *UsageError
		missing *config.MissingError
		tgErr   *telegram.Error
	)

	switch {
	case errors.As(err, &usage):
		fmt.Fprintf(out, "Error: %v\n", usage)
		fmt.Fprint(out, usageText)
	case errors.As(err, &missing):
		fmt.Fprintf(out, "Error: %v\n", missing)
	case errors.As(err, &tgErr):
		switch tgErr.Kind {
		case telegram.KindNetwork:
			fmt.Fprintf(out, "Network error: %v\n", tgErr)
		case telegram.KindResponseParse:
			fmt.Fprintf(out, "JSON parse error: %v\n", tgErr.Err)
		case telegram.KindAPI:
			fmt.Fprintf(out, "API error: %s\n", tgErr.Description)
		default:
			fmt.Fprintf(out, "Error: %v\n", tgErr)
		}
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

const usageText = `Usage: emu-alert 'message text'
       emu-alert [--dry-run] [--env-file FILE] -- '-message starting with a dash'

Set the environment variables before use:
  ` + config.EnvBotToken + `  Telegram bot token
  ` + config.EnvChatID + `    destination chat ID
`

// Execute runs the CLI
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
