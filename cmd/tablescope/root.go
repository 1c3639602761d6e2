package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/app"
	"github.com/sadopc/tablescope/internal/audit"
	"github.com/sadopc/tablescope/internal/config"
	"github.com/sadopc/tablescope/internal/history"
	"github.com/sadopc/tablescope/internal/logging"
)

// cli holds the state shared by every command.
type cli struct {
	out        io.Writer
	configPath string
	connection string

	cfgFile  string
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, closeLog: func() error { return nil }}

	root := &cobra.Command{
		Use:   "tablescope [dsn]",
		Short: "Browse and edit database tables from the terminal",
		Long: `tablescope lists the tables of a database, pages through their rows with
search, edits single rows and runs SQL statements. It speaks SQLite,
PostgreSQL, MySQL and DuckDB.

Examples:
  tablescope ./app.db                          # open the TUI on a SQLite file
  tablescope postgres://app@localhost/main     # open the TUI on PostgreSQL
  tablescope --connection prod                 # use a saved connection
  tablescope read ./app.db agents --search idle
  tablescope serve ./app.db --addr :8080`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(cmd, true); err != nil {
				return err
			}
			defer c.closeLog()
			return c.runTUI(cmd.Context(), args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "config file (default <config dir>/tablescope/config.yaml)")
	pf.StringVar(&c.connection, "connection", "", "saved connection name")
	pf.String("theme", "", "color theme (default, light, monokai)")
	pf.String("key-mode", "", "key mode (standard, vim)")
	pf.Int("page-size", 0, "rows per page")
	pf.Duration("timeout", 0, "storage call timeout")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "log file for the TUI")

	root.AddCommand(
		c.tablesCmd(),
		c.readCmd(),
		c.queryCmd(),
		c.resetCmd(),
		c.serveCmd(),
		c.versionCmd(),
	)
	return root
}

// setup loads the configuration and the logger. The TUI owns the terminal,
// so it logs to a file; the other commands log to stderr.
func (c *cli) setup(cmd *cobra.Command, toFile bool) error {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	c.cfg, c.cfgFile = cfg, path

	if toFile {
		logger, closeFn, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return err
		}
		c.logger, c.closeLog = logger, closeFn
	} else {
		c.logger = logging.New(os.Stderr, cfg.Log.Level)
	}
	slog.SetDefault(c.logger)
	return nil
}

// target resolves the DSN to open from the positional argument or the
// --connection flag. An empty DSN means neither was given.
func (c *cli) target(args []string) (driver, dsn string, err error) {
	if len(args) > 0 && args[0] != "" {
		return "", args[0], nil
	}
	if c.connection == "" {
		return "", "", nil
	}
	sc, ok := c.cfg.Connection(c.connection)
	if !ok {
		return "", "", fmt.Errorf("no saved connection named %q", c.connection)
	}
	dsn, err = sc.ResolveDSN()
	if err != nil {
		return "", "", err
	}
	return sc.Driver, dsn, nil
}

// open connects to the target named by args and pings it.
func (c *cli) open(ctx context.Context, args []string) (adapter.Store, error) {
	driver, dsn, err := c.target(args)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("a DSN argument or --connection is required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Storage.Timeout)
	defer cancel()

	store, err := adapter.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	c.logger.Debug("connected", "driver", store.DriverName(), "dsn", config.Redact(dsn))
	return store, nil
}

func (c *cli) openHistory() *history.History {
	if !c.cfg.History.Enabled {
		return nil
	}
	path, err := history.DefaultPath()
	if err == nil {
		var hist *history.History
		if hist, err = history.Open(path, c.cfg.History.MaxEntries); err == nil {
			return hist
		}
	}
	c.logger.Warn("history disabled", "err", err)
	return nil
}

func (c *cli) openAudit() *audit.Logger {
	if !c.cfg.Audit.Enabled {
		return nil
	}
	path := c.cfg.Audit.Path
	if path == "" {
		p, err := audit.DefaultPath()
		if err != nil {
			c.logger.Warn("audit log disabled", "err", err)
			return nil
		}
		path = p
	}
	l, err := audit.New(path, c.cfg.Audit.MaxSizeMB)
	if err != nil {
		c.logger.Warn("audit log disabled", "err", err)
		return nil
	}
	return l
}

func (c *cli) runTUI(ctx context.Context, args []string) error {
	driver, dsn, err := c.target(args)
	if err != nil {
		return err
	}

	hist := c.openHistory()
	if hist != nil {
		defer hist.Close()
	}
	auditLog := c.openAudit()
	defer auditLog.Close()

	model := app.New(c.cfg, app.Options{
		History: hist,
		Audit:   auditLog,
		Logger:  c.logger,
		SaveConnections: func(conns []config.SavedConnection) error {
			c.cfg.Connections = conns
			return c.cfg.Save(c.cfgFile)
		},
	})
	var connect tea.Cmd
	if dsn != "" {
		connect = model.Connect(driver, dsn)
	} else {
		model.ShowConnManager()
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if connect != nil {
		go func() { p.Send(connect()) }()
	}

	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		if cerr := m.Close(); cerr != nil {
			c.logger.Warn("closing store", "err", cerr)
		}
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
