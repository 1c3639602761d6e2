package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/audit"
	"github.com/sadopc/tablescope/internal/export"
	"github.com/sadopc/tablescope/internal/server"
	"github.com/sadopc/tablescope/internal/value"
)

// withStore sets up config and logging, opens the store named by args[0]
// and runs fn with the remaining args.
func (c *cli) withStore(cmd *cobra.Command, args []string, fn func(ctx context.Context, store adapter.Store, rest []string) error) error {
	if err := c.setup(cmd, false); err != nil {
		return err
	}
	var target []string
	if c.connection == "" && len(args) > 0 {
		target, args = args[:1], args[1:]
	}
	store, err := c.open(cmd.Context(), target)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cmd.Context(), store, args)
}

func (c *cli) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.Storage.Timeout)
}

func formatFlag(cmd *cobra.Command, f *string) {
	cmd.Flags().StringVarP(f, "format", "o", "table", "output format (table, json, csv, markdown)")
}

func (c *cli) tablesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tables [dsn]",
		Short: "List tables with their row counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return c.withStore(cmd, args, func(ctx context.Context, store adapter.Store, _ []string) error {
				ctx, cancel := c.timeout(ctx)
				defer cancel()
				tables, err := store.ListTables(ctx)
				if err != nil {
					return err
				}
				g := export.Grid{Columns: []string{"table", "rows", "columns", "primary key"}}
				for _, t := range tables {
					pk := value.Null()
					if t.HasPrimaryKey() {
						pk = value.String(fmt.Sprint(t.PrimaryKeyNames()))
					}
					g.Rows = append(g.Rows, []value.Value{
						value.String(t.Name), value.Int(t.RowCount), value.Int(int64(len(t.Columns))), pk,
					})
				}
				return export.Write(c.out, g, f)
			})
		},
	}
	formatFlag(cmd, &format)
	return cmd
}

func (c *cli) readCmd() *cobra.Command {
	var (
		format string
		page   int
		search string
	)
	cmd := &cobra.Command{
		Use:   "read [dsn] TABLE",
		Short: "Print one page of a table",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return c.withStore(cmd, args, func(ctx context.Context, store adapter.Store, rest []string) error {
				if len(rest) != 1 {
					return errors.New("exactly one TABLE is required")
				}
				ctx, cancel := c.timeout(ctx)
				defer cancel()
				res, err := store.ReadTable(ctx, adapter.ReadRequest{
					Table:    rest[0],
					Page:     max(page, 1),
					PageSize: c.cfg.Results.PageSize,
					Search:   search,
				})
				if err != nil {
					return err
				}
				if err := export.Write(c.out, export.FromPage(res), f); err != nil {
					return err
				}
				if f == export.Table {
					fmt.Fprintf(c.out, "page %d of %d, %d rows total\n", res.Page, max(res.TotalPages, 1), res.TotalRows)
				}
				return nil
			})
		},
	}
	formatFlag(cmd, &format)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&search, "search", "", "only rows containing this text in any column")
	return cmd
}

func (c *cli) queryCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query [dsn] SQL",
		Short: "Run one SQL statement",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return c.withStore(cmd, args, func(ctx context.Context, store adapter.Store, rest []string) error {
				if len(rest) != 1 {
					return errors.New("exactly one SQL statement is required")
				}
				ctx, cancel := c.timeout(ctx)
				defer cancel()
				out, err := store.ExecuteStatement(ctx, rest[0])
				if err != nil {
					return err
				}
				if out.IsMutation() {
					auditLog := c.openAudit()
					defer auditLog.Close()
					auditLog.Log(audit.Entry{
						Action:     "query",
						Driver:     store.DriverName(),
						Database:   store.DatabaseName(),
						Statement:  rest[0],
						DurationMS: out.Duration.Milliseconds(),
						RowCount:   out.RowCount(),
					})
					_, err := fmt.Fprintln(c.out, out.Summary())
					return err
				}
				return export.Write(c.out, export.FromResultSet(out.ResultSet), f)
			})
		},
	}
	formatFlag(cmd, &format)
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset [dsn]",
		Short: "Drop every table and recreate the default empty schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset drops every table; pass --yes to confirm")
			}
			return c.withStore(cmd, args, func(ctx context.Context, store adapter.Store, _ []string) error {
				ctx, cancel := c.timeout(ctx)
				defer cancel()
				err := store.ResetDatabase(ctx)
				auditLog := c.openAudit()
				defer auditLog.Close()
				e := audit.Entry{Action: "reset", Driver: store.DriverName(), Database: store.DatabaseName()}
				if err != nil {
					e.Error = err.Error()
				}
				auditLog.Log(e)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.out, "Reset %s to the default schema.\n", store.DatabaseName())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dsn]",
		Short: "Serve the tables over a JSON HTTP API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, args, func(ctx context.Context, store adapter.Store, _ []string) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				auditLog := c.openAudit()
				defer auditLog.Close()
				return server.New(server.Config{
					Store:    store,
					Addr:     c.cfg.Server.Addr,
					PageSize: c.cfg.Results.PageSize,
					Timeout:  c.cfg.Storage.Timeout,
					Logger:   c.logger,
					Audit:    auditLog,
				}).Serve(ctx)
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.out, "tablescope %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(c.out, "\nSupported drivers:")
			for _, name := range adapter.Names() {
				fmt.Fprintf(c.out, "  - %s\n", name)
			}
			return nil
		},
	}
}
