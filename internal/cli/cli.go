package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"formrelay/internal/app"
	"formrelay/internal/config"
	"formrelay/internal/transport/telegram/adapter"
	logx "formrelay/pkg/logx"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

type rootFlags struct {
	configPath string
	envFile    string
}

// NewRootCmd creates the root command. Running it without a subcommand
// serves the relay.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "formrelay",
		Short: "Relay website form submissions to a Telegram chat",
		Long: `formrelay accepts POST /send_form from a website and forwards each
submission as an HTML message to the chat named by CHAT_ID, using the bot
identified by BOT_TOKEN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}

	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Path to a YAML or JSON config file (optional)")
	cmd.PersistentFlags().StringVar(&f.envFile, "env-file", "", "Env file to load before reading the environment (default .env)")

	cmd.AddCommand(newServeCmd(f), newCheckConfigCmd(f))
	return cmd
}

func newServeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
}

func runServe(parent context.Context, f *rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{ConfigPath: f.configPath, EnvFile: f.envFile})
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background())
		return err
	}

	<-a.Done()
	a.Logger().Info("shutting down")
	if err := a.Stop(context.Background()); err != nil {
		return err
	}
	return a.Err()
}

func newCheckConfigCmd(f *rootFlags) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and environment, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckConfig(cmd, f, online)
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also verify BOT_TOKEN against the Telegram API (getMe)")
	return cmd
}

func runCheckConfig(cmd *cobra.Command, f *rootFlags, online bool) error {
	out := cmd.OutOrStdout()

	if err := config.LoadEnvFile(f.envFile); err != nil {
		return err
	}
	cfg, err := config.NewConfigManager(f.configPath).Load()
	if err != nil {
		return fmt.Errorf("config invalid:\n%w", err)
	}
	dest, err := cfg.Destination()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "config ok\n")
	fmt.Fprintf(out, "  listen:  %s\n", cfg.HTTP.Addr)
	fmt.Fprintf(out, "  chat_id: %d\n", dest)
	fmt.Fprintf(out, "  api_url: %s\n", cfg.Telegram.APIURL)

	if !online {
		return nil
	}
	timeout, err := config.ParseDurationOrDefault("telegram.http_timeout", cfg.Telegram.HTTPTimeout, 0)
	if err != nil {
		return err
	}
	ad, err := adapter.New(adapter.Config{
		Token:       cfg.Telegram.Token,
		APIURL:      cfg.Telegram.APIURL,
		HTTPTimeout: timeout,
		Online:      true,
	}, logx.Nop())
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	fmt.Fprintf(out, "  bot:     @%s\n", ad.Username())
	return nil
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formrelay:", err)
		return ExitError
	}
	return ExitSuccess
}
