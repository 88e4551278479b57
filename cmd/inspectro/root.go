package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/inspectro-tui/internal/app"
	"github.com/j-veylop/inspectro-tui/internal/config"
	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/services"
	"github.com/j-veylop/inspectro-tui/internal/ui/tabs/info"
	"github.com/j-veylop/inspectro-tui/internal/ui/tabs/llms"
	"github.com/j-veylop/inspectro-tui/internal/ui/tabs/usage"
	"github.com/j-veylop/inspectro-tui/internal/version"
)

const longHelp = `inspectro meters LLM API calls and charts what they cost.

Run "inspectro serve" to start the metering proxy and usage API, then point
your LLM clients at http://<listen addr>/proxy/. Running inspectro without a
command opens the dashboard.

Keyboard Shortcuts:
  1-3             Switch between tabs (Usage, Models, Info)
  Tab/Shift+Tab   Navigate between tabs
  t               Cycle the date range
  /               Filter by model or provider
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  DATABASE_PATH           SQLite database path
  LLM_CONFIG_PATH         Provider and model catalog (YAML)
  LISTEN_ADDR             Address for "serve" (default :7865)
  USAGE_API_URL           Read usage from another instance instead
  TIMEZONE                IANA zone used for calendar days
  USAGE_REFRESH_INTERVAL  Dashboard refresh interval (default 5s)
  SPENDING_ALERT_USD      Notify once all-time spend passes this amount
  USAGE_RETENTION_DAYS    Delete usage older than this many days
  LOG_LEVEL, LOG_FILE     Logging

Configuration:
  The application looks for .env files in the current directory and in
  ~/.config/inspectro/.env.`

func newRootCmd() *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:           "inspectro",
		Short:         "LLM usage metering and dashboard",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.Info())
				return nil
			}
			return runTUI()
		},
	}
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newServeCmd(), newCleanupCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// setup loads configuration and routes logging to the configured file.
func setup(logFile bool) (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := logger.Options{Level: cfg.LogLevel}
	if logFile {
		opts.File = cfg.LogFile
	}
	closer, err := logger.Setup(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, closer, nil
}

// runTUI runs the dashboard until the user quits.
func runTUI() error {
	// The TUI owns the terminal, so logs always go to the file.
	cfg, logCloser, err := setup(true)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		usage.New(state, cfg.SpendingAlertUSD),
		llms.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
