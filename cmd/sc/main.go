package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smartcollect/internal/config"
	"smartcollect/internal/db"
	"smartcollect/internal/engine"
	"smartcollect/internal/export"
	"smartcollect/internal/importer"
	"smartcollect/internal/migrate"
	"smartcollect/internal/server"
	"smartcollect/internal/strategy"
)

var rootCmd = &cobra.Command{
	Use:   "sc",
	Short: "SmartCollect CLI",
	Long: `SmartCollect manages an overdue-receivables portfolio.
Core concepts:
- Workspace: the .smartcollect directory holding the database; settings live in the DB.
- Portfolio: the full collection of delinquent accounts, replaced wholesale on seed or import.
- Strategy: every account gets a 0-100 collection score, a tier, a channel and a tone.
- Assignment: scored accounts are distributed round robin across operators with soft capacity.
- Promises: payment promises flow open -> paid/canceled and are classified against today.
- Audit log: diary of portfolio mutations, view with 'sc audit tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SMARTCOLLECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "local-user", "actor recorded in the audit log")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(promiseCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(serveCmd())
}

func seedCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the portfolio with generated demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				accounts, err := e.SeedDemo(ctx, count, viper.GetString("actor"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(accounts)
				}
				fmt.Printf("Seeded %d accounts.\n", len(accounts))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 25, "number of accounts to generate")
	return cmd
}

func portfolioCmd() *cobra.Command {
	p := &cobra.Command{Use: "portfolio", Short: "Manage the account portfolio"}
	p.AddCommand(portfolioListCmd())
	p.AddCommand(portfolioStatsCmd())
	p.AddCommand(portfolioRefreshCmd())
	p.AddCommand(portfolioResetCmd())
	p.AddCommand(portfolioExportCmd())
	return p
}

func portfolioStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aging, tier and status distributions with KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				overview, err := e.Overview(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(overview)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Aging bucket", "Accounts"})
				for _, b := range overview.Aging {
					tw.AppendRow(table.Row{b.Bucket, b.Count})
				}
				tw.Render()
				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Tier", "Accounts"})
				for _, b := range overview.Tiers {
					tw.AppendRow(table.Row{b.Bucket, b.Count})
				}
				tw.Render()
				fmt.Printf("Accounts: %d  Total: %s  Estimated recovery: %s\n",
					overview.Accounts, strategy.FormatMoney(overview.KPIs.TotalAmount),
					strategy.FormatMoney(overview.KPIs.EstimatedRecovery))
				return nil
			})
		},
	}
	return cmd
}

func portfolioRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-pull the portfolio through the simulated remote feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				accounts, err := e.RefreshPortfolio(ctx, viper.GetString("actor"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(accounts)
				}
				fmt.Printf("Refreshed %d accounts.\n", len(accounts))
				return nil
			})
		},
	}
	return cmd
}

func portfolioListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Distribute(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res.Rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Days", "Amount", "Score", "Tier", "Status", "Operator"})
				for _, r := range res.Rows {
					tw.AppendRow(table.Row{
						shortID(r.ID), r.Name, r.DaysOverdue, strategy.FormatMoney(r.Amount),
						r.Score, r.Tier, r.Status, r.Account.Operator,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func portfolioResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.ResetPortfolio(ctx, viper.GetString("actor")); err != nil {
					return err
				}
				fmt.Println("Portfolio cleared.")
				return nil
			})
		},
	}
	return cmd
}

func portfolioExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the portfolio to .xlsx or .csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				accounts, err := e.Portfolio(ctx)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				switch {
				case strings.HasSuffix(strings.ToLower(out), ".csv"):
					err = export.WriteCSV(f, accounts)
				case strings.HasSuffix(strings.ToLower(out), ".xlsx"):
					err = export.WriteXLSX(f, accounts)
				default:
					err = fmt.Errorf("unsupported export extension on %q: use .csv or .xlsx", out)
				}
				if err != nil {
					return err
				}
				fmt.Printf("Exported %d accounts to %s\n", len(accounts), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "portfolio.xlsx", "output file")
	return cmd
}

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Distribute accounts across operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Distribute(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Operator", "Assigned", "Capacity", "Amount", "Avg Score", "Critical", "SLA Breach"})
				for _, op := range res.Operators {
					tw.AppendRow(table.Row{
						op.Name, op.AssignedCount, op.Capacity, strategy.FormatMoney(op.TotalAmount),
						op.AverageScore, op.CriticalCount, op.SLABreachCount,
					})
				}
				tw.Render()
				fmt.Printf("Total: %s  Critical: %d  SLA breaches: %d  Estimated recovery: %s\n",
					strategy.FormatMoney(res.KPIs.TotalAmount), res.KPIs.CriticalCount,
					res.KPIs.SLABreachCount, strategy.FormatMoney(res.KPIs.EstimatedRecovery))
				return nil
			})
		},
	}
	return cmd
}

func accountCmd() *cobra.Command {
	acc := &cobra.Command{Use: "account", Short: "Operate on single accounts"}
	acc.AddCommand(accountStatusCmd())
	acc.AddCommand(accountContactCmd())
	acc.AddCommand(accountMessageCmd())
	return acc
}

func accountStatusCmd() *cobra.Command {
	var id, status string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Update an account's workflow status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.SetStatus(ctx, id, status, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "account id")
	cmd.Flags().StringVar(&status, "status", "", "new status (open, negotiating, promised, paid, no-contact)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func accountContactCmd() *cobra.Command {
	var id, channel, note string
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Register an outreach contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.RegisterContact(ctx, id, channel, note, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "account id")
	cmd.Flags().StringVar(&channel, "channel", "", "contact channel (defaults to WhatsApp)")
	cmd.Flags().StringVar(&note, "note", "", "what happened on the contact")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func accountMessageCmd() *cobra.Command {
	var id, channel string
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Render the suggested outreach message",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				msg, err := e.SuggestMessage(ctx, id, channel)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"message": msg})
				}
				fmt.Println(msg)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "account id")
	cmd.Flags().StringVar(&channel, "channel", "WhatsApp", "message channel")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func promiseCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "promise",
		Short: "Manage payment promises",
		Long:  "Promises flow open -> paid/canceled. Open promises are classified against today: overdue, due today, due tomorrow, due this week, or future.",
	}
	p.AddCommand(promiseListCmd())
	p.AddCommand(promiseCreateCmd())
	p.AddCommand(promiseEditCmd())
	p.AddCommand(promisePayCmd())
	p.AddCommand(promiseCancelCmd())
	return p
}

func promiseListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List promises across the portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				flat, summary, err := e.FlatPromises(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"items": flat, "summary": summary})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Account", "Amount", "Date", "Status", "Class"})
				for _, p := range flat {
					tw.AppendRow(table.Row{
						shortID(p.ID), p.AccountName, strategy.FormatMoney(p.Amount),
						p.Date, p.Status, p.Classification,
					})
				}
				tw.Render()
				fmt.Printf("Due within 7 days: %s\n", strategy.FormatMoney(summary.SevenDayValue))
				return nil
			})
		},
	}
	return cmd
}

func promiseCreateCmd() *cobra.Command {
	var accountID string
	var opts engine.PromiseOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a payment promise on an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePromise(ctx, accountID, opts, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().Float64Var(&opts.Amount, "amount", 0, "promised amount")
	cmd.Flags().StringVar(&opts.Date, "date", "", "promised date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "channel the promise was made on")
	cmd.Flags().StringVar(&opts.Note, "note", "", "free-form note")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func promiseEditCmd() *cobra.Command {
	var id string
	var opts engine.PromiseOptions
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an open promise",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.EditPromise(ctx, id, opts, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "promise id")
	cmd.Flags().Float64Var(&opts.Amount, "amount", 0, "promised amount")
	cmd.Flags().StringVar(&opts.Date, "date", "", "promised date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "channel the promise was made on")
	cmd.Flags().StringVar(&opts.Note, "note", "", "free-form note")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func promisePayCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Mark a promise as paid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.PayPromise(ctx, id, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "promise id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func promiseCancelCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a promise",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CancelPromise(ctx, id, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "promise id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func importCmd() *cobra.Command {
	imp := &cobra.Command{Use: "import", Short: "Import a portfolio from a spreadsheet"}
	imp.AddCommand(importInferCmd())
	imp.AddCommand(importPreviewCmd())
	imp.AddCommand(importApplyCmd())
	return imp
}

func readSheet(path, sheetName string) (importer.Sheet, error) {
	src, err := importer.Open(path)
	if err != nil {
		return importer.Sheet{}, err
	}
	defer src.Close()
	if sheetName == "" {
		names := src.SheetNames()
		if len(names) == 0 {
			return importer.Sheet{}, errors.New("file has no sheets")
		}
		sheetName = names[0]
	}
	return src.ReadSheet(sheetName)
}

func importInferCmd() *cobra.Command {
	var file, sheetName string
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer the column mapping from a file's headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(file, sheetName)
			if err != nil {
				return err
			}
			return printJSONOrTable(importer.InferMapping(sheet.Headers))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to .csv or .xlsx")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet name (first sheet by default)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importPreviewCmd() *cobra.Command {
	var file, sheetName string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Validate a file without touching the portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(file, sheetName)
			if err != nil {
				return err
			}
			mapping := importer.InferMapping(sheet.Headers)
			report := importer.Validate(importer.Normalize(sheet.Rows, mapping))
			if viper.GetBool("json") {
				return printJSON(report)
			}
			fmt.Printf("Valid rows: %d  Invalid rows: %d\n", len(report.Valid), len(report.Invalid))
			for _, e := range report.Errors {
				fmt.Printf("  row %d, %s: %s\n", e.Row+1, e.Field, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to .csv or .xlsx")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet name (first sheet by default)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importApplyCmd() *cobra.Command {
	var file, sheetName string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Import a file as the new portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(file, sheetName)
			if err != nil {
				return err
			}
			mapping := importer.InferMapping(sheet.Headers)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				report, err := e.ApplyImport(ctx, sheet.Rows, mapping, viper.GetString("actor"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				fmt.Printf("Imported %d accounts (%d invalid rows skipped).\n", len(report.Valid), len(report.Invalid))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to .csv or .xlsx")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet name (first sheet by default)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func settingsCmd() *cobra.Command {
	s := &cobra.Command{Use: "settings", Short: "Manage SLA, operators and templates"}
	s.AddCommand(settingsShowCmd())
	s.AddCommand(settingsImportCmd())
	return s
}

func settingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Repo.LoadSettings(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func settingsImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import settings from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Repo.SaveSettings(ctx, s); err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML settings")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func auditCmd() *cobra.Command {
	a := &cobra.Command{Use: "audit", Short: "Inspect the audit log"}
	a.AddCommand(auditTailCmd())
	return a
}

func auditTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent audit events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.ListAudit(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Actor", "Message"})
				for _, ev := range events {
					tw.AppendRow(table.Row{ev.TS, ev.Type, ev.Actor, ev.Message})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e := engine.New(conn)
			authCfg := server.AuthConfig{
				JWTSecret: os.Getenv("SMARTCOLLECT_JWT_SECRET"),
				Email:     envOr("SMARTCOLLECT_LOGIN_EMAIL", "admin@smartcollect.com"),
				Password:  envOr("SMARTCOLLECT_LOGIN_PASSWORD", "admin123"),
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("SMARTCOLLECT_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			logLevel := slog.LevelInfo
			if viper.GetBool("verbose") {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			slog.Info("serving SmartCollect API", "addr", addr, "base_path", basePath, "docs", "/docs")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, engine.New(conn))
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
