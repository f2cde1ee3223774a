package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/launcher"
	"github.com/pders01/ytspot/internal/search"
	"github.com/pders01/ytspot/internal/selection"
	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/tracker"
	"github.com/pders01/ytspot/internal/tui"
	"github.com/pders01/ytspot/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(out, tui.GetBanner(Version))
		}
		fmt.Fprintf(out, "ytspot %s\n", Version)
		fmt.Fprintln(out, "Ticket quick-launcher")
		fmt.Fprintln(out, "github.com/pders01/ytspot")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGenForce bool

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil && !configGenForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
		return nil
	},
}

var configShowSecrets bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		data, err := config.Encode(cfg, configShowSecrets)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configCheckConnection bool

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and optionally the tracker connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Configuration OK")

		if !configCheckConnection {
			return nil
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg.Sync.HTTPTimeout)
		defer cancel()

		if err := client.ValidateConnection(ctx); err != nil {
			return fmt.Errorf("connection check failed: %w", err)
		}
		user, err := client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Connected to %s as %s\n", client.BaseURL(), user.Name)
		return nil
	},
}

var syncIfStale bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the ticket cache from the tracker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := commandContext(0)
		defer cancel()

		syncer := tracker.NewSyncer(client, store, cfg.Tracker.Projects)
		started := time.Now()

		var res *tracker.Result
		if syncIfStale {
			res, err = syncer.SyncIfStale(ctx, cfg.Sync.RefreshInterval)
		} else {
			res, err = syncer.Sync(ctx)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if res.Skipped {
			fmt.Fprintf(out, "Cache is fresh (%s), %d tickets\n",
				tui.MsgLastSync(res.Meta.LastSync, time.Now()), len(res.Tickets))
			return nil
		}
		fmt.Fprintf(out, "%s from %d projects\n",
			tui.MsgSynced(len(res.Tickets), time.Since(started)), len(cfg.Tracker.Projects))
		return nil
	},
}

var projectsArchived bool

// projectSource adapts projects to fuzzy.Source.
type projectSource []storage.Project

func (p projectSource) String(i int) string { return p[i].ShortName + " " + p[i].Name }
func (p projectSource) Len() int            { return len(p) }

// filterProjects keeps projects matching filter, best match first. An empty
// filter keeps the input order.
func filterProjects(projects []storage.Project, filter string) []storage.Project {
	if strings.TrimSpace(filter) == "" {
		return projects
	}
	matches := fuzzy.FindFrom(filter, projectSource(projects))
	out := make([]storage.Project, 0, len(matches))
	for _, m := range matches {
		out = append(out, projects[m.Index])
	}
	return out
}

var projectsCmd = &cobra.Command{
	Use:   "projects [filter]",
	Short: "List tracker projects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg.Sync.HTTPTimeout)
		defer cancel()

		projects, err := client.Projects(ctx)
		if err != nil {
			return err
		}

		visible := make([]storage.Project, 0, len(projects))
		for _, p := range projects {
			if projectsArchived || !p.Archived {
				visible = append(visible, p)
			}
		}
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		visible = filterProjects(visible, filter)

		configured := make(map[string]bool, len(cfg.Tracker.Projects))
		for _, p := range cfg.Tracker.Projects {
			configured[strings.ToUpper(p)] = true
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tSYNCED\tARCHIVED")
		for _, p := range visible {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ShortName, p.Name,
				yesNo(configured[strings.ToUpper(p.ShortName)]), yesNo(p.Archived))
		}
		return w.Flush()
	},
}

var (
	searchAll    bool
	searchScores bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Rank cached tickets without opening the launcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tickets, err := cachedTickets(cfg)
		if err != nil {
			return err
		}

		opts := cfg.SearchOptions()
		opts.Observer = logRanking
		if searchAll {
			opts.Limit = 0
		}

		query := strings.Join(args, " ")
		ranked := search.NewRanker(opts).Rank(tickets, query)
		if len(ranked) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.MsgNoResults)
			return nil
		}
		return printTickets(cmd, ranked, query)
	},
}

func printTickets(cmd *cobra.Command, tickets []storage.Ticket, query string) error {
	q := strings.ToLower(strings.TrimSpace(query))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, t := range tickets {
		if searchScores {
			fmt.Fprintf(w, "%d\t", search.Score(t, q))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Type, t.Priority, t.Summary, strings.Join(t.Sprints, ", "))
	}
	return w.Flush()
}

var showWidth int

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a cached ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, _, ok := validation.ParseTicketID(args[0]); !ok {
			return fmt.Errorf("%q is not a ticket id like AGV-918", args[0])
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := store.GetTicket(args[0])
		if errors.Is(err, storage.ErrTicketNotFound) {
			return fmt.Errorf("ticket %s is not cached (try 'ytspot sync')", args[0])
		}
		if err != nil {
			return err
		}

		out, err := tui.RenderTicket(*t, showWidth)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <query...>",
	Short: "Copy the link of the best matching ticket",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return confirmBestMatch(cmd, strings.Join(args, " "), false)
	},
}

var openCmd = &cobra.Command{
	Use:   "open <query...>",
	Short: "Open the best matching ticket in the browser",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return confirmBestMatch(cmd, strings.Join(args, " "), true)
	},
}

// confirmBestMatch loads the cache and confirms the top ranked ticket.
func confirmBestMatch(cmd *cobra.Command, query string, alternate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tickets, err := cachedTickets(cfg)
	if err != nil {
		return err
	}
	return selectAndConfirm(cmd.OutOrStdout(), cfg, tickets, query, alternate)
}

// selectAndConfirm drives a headless selection: rank for query, then
// confirm the top row exactly as pressing enter in the launcher would.
func selectAndConfirm(out io.Writer, cfg *config.Config, tickets []storage.Ticket, query string, alternate bool, opts ...launcher.Option) error {
	var actionErr error
	opts = append(opts, launcher.WithErrorHandler(func(err error) { actionErr = err }))
	l := launcher.New(cfg, opts...)

	searchOpts := cfg.SearchOptions()
	searchOpts.Observer = logRanking

	ctrl := selection.New(search.NewRanker(searchOpts), launcher.Sink{Launcher: l}, nil)
	ctrl.SetTickets(tickets)
	ctrl.SetQuery(query)

	t, ok := ctrl.Selected()
	if !ok {
		return fmt.Errorf("no ticket matches %q", query)
	}
	ctrl.Confirm(alternate)
	if actionErr != nil {
		return actionErr
	}

	verb := "Copied"
	if alternate {
		verb = "Opened"
	}
	fmt.Fprintf(out, "%s %s  %s\n", verb, t.ID, t.Summary)
	return nil
}

func cachedTickets(cfg *config.Config) ([]storage.Ticket, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	tickets, err := store.GetTickets()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return tickets, nil
}

func logRanking(s search.Stats) {
	debuglog.WithFields(map[string]any{
		"query":    s.Query,
		"total":    s.Total,
		"matched":  s.Matched,
		"returned": s.Returned,
	}).Debugf("ranked tickets")
}

// commandContext is cancelled on interrupt and, when timeout is positive,
// after timeout.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	configGenCmd.Flags().BoolVar(&configGenForce, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "Print the tracker token instead of a mask")
	configValidateCmd.Flags().BoolVar(&configCheckConnection, "check-connection", false, "Also verify the tracker URL and token")
	syncCmd.Flags().BoolVar(&syncIfStale, "if-stale", false, "Only sync when the cache is older than sync.refresh_interval")
	projectsCmd.Flags().BoolVar(&projectsArchived, "archived", false, "Include archived projects")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "Ignore search.max_results")
	searchCmd.Flags().BoolVar(&searchScores, "scores", false, "Prefix each row with its relevance score")
	showCmd.Flags().IntVar(&showWidth, "width", 80, "Wrap width")
}
