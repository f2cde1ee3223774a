package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/launcher"
	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/tracker"
	"github.com/pders01/ytspot/internal/tui"
	"github.com/pders01/ytspot/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath   string
	dbPath       string
	logLevel     string
	initialQuery string
	noSync       bool
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "ytspot [query...]",
	Short: "Quick-launch issue tracker tickets from the terminal",
	Long: `ytspot keeps a local cache of your tracker's tickets and lets you find one
by typing part of its id, summary, type, priority or sprint. Enter copies
the ticket link, alt+enter or ctrl+o opens it in the browser.`,
	SilenceUsage: true,
	RunE:         runLauncher,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")

	rootCmd.Flags().StringVarP(&initialQuery, "query", "q", "", "Initial search query")
	rootCmd.Flags().BoolVar(&noSync, "no-sync", false, "Do not sync with the tracker on startup")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress startup notices")

	configCmd.AddCommand(configGenCmd, configShowCmd, configValidateCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)

	rootCmd.AddCommand(
		versionCmd,
		configCmd,
		tokenCmd,
		syncCmd,
		projectsCmd,
		searchCmd,
		showCmd,
		copyCmd,
		openCmd,
	)
}

func main() {
	defer debuglog.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration and applies the global
// flag overrides. Logging is configured as a side effect.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	return debuglog.SetupWithOptions(debuglog.Options{
		Level:      debuglog.ParseLogLevel(cfg.Log.Level),
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := validation.PrepareFilePath(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	store, err := storage.NewStoreWithTimeout(path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

// newClient builds a tracker client. It returns tracker.ErrNotConfigured
// when either the base URL or the token is missing.
func newClient(cfg *config.Config) (*tracker.Client, error) {
	return tracker.NewClient(cfg, resolveToken(cfg))
}

func runLauncher(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := tui.Options{
		InitialQuery: initialQuery,
		NoSync:       noSync,
	}
	if opts.InitialQuery == "" {
		opts.InitialQuery = strings.Join(args, " ")
	}

	client, err := newClient(cfg)
	switch {
	case err == nil:
		opts.Syncer = tracker.NewSyncer(client, store, cfg.Tracker.Projects)
	case errors.Is(err, tracker.ErrNotConfigured):
		debuglog.Infof("tracker not configured, running from cache")
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "ytspot: no tracker configured, using cached tickets (see 'ytspot token set')")
		}
	default:
		return err
	}

	var app *tui.App
	l := launcher.New(cfg, launcher.WithErrorHandler(func(err error) {
		app.ReportError(err)
	}))
	opts.Actions = l
	app = tui.NewApp(store, cfg, opts)

	programOpts := []tea.ProgramOption{}
	if cfg.UI.WindowPos != "inline" {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(app, programOpts...).Run(); err != nil {
		return fmt.Errorf("launcher: %w", err)
	}
	return app.Err()
}
