package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/notify"
	"github.com/billfold/billfold/internal/profile"
	"github.com/billfold/billfold/internal/session"
	"github.com/billfold/billfold/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "billfold",
	Short: "Billfold - Terminal invoice and expense tracker with cloud sync",
	Long: `Billfold tracks your invoices, expenses and todos across devices.
Invoices, tasks and notifications live on the sync server and update in
realtime; a local cache keeps preferences and your profile available offline.

Run 'billfold' without arguments to launch the interactive TUI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			cfg = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}

		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("Billfold started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if !client.IsSignedIn() {
			fmt.Println("Not signed in. Run 'billfold auth login' first.")
			return nil
		}

		store, err := localstore.OpenDefault()
		if err != nil {
			logger.Error("Failed to open local cache", logger.F("error", err))
			return fmt.Errorf("failed to open local cache: %w", err)
		}
		defer func() {
			_ = store.Close()
			logger.Info("Local cache closed")
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mgr := session.NewManager(client, store)
		mgr.Start(ctx)
		defer mgr.Stop()

		sess := client.CurrentSession()
		prof := profile.NewCache(client, store)
		if err := prof.Load(ctx, client.UserID(), sess.Email); err != nil {
			logger.Warn("Profile load failed", logger.F("error", err))
		}

		board := kanban.NewBoard(client, client.UserID())
		invoices := invoice.NewService(client)
		center := notify.NewCenter(ctx, client, store)

		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}

		logger.Info("Launching TUI")
		m := tui.NewModel(client, board, invoices, center, prof, cfg, mgr.Events())
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Billfold exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newClient builds a backend client from the saved config
func newClient() (*backend.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	client, err := backend.NewClient(cfg.ServerURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(invoiceCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(profileCmd)
}
