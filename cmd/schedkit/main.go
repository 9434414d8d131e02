package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskdeck-org/schedkit"
	schedcron "github.com/taskdeck-org/schedkit/cron"
	"github.com/taskdeck-org/schedkit/internal/config"
	"github.com/taskdeck-org/schedkit/migrate"
	"github.com/taskdeck-org/schedkit/tenants"
	"github.com/taskdeck-org/schedkit/worker"
)

var rootCmd = &cobra.Command{
	Use:   "schedkit",
	Short: "Multi-tenant scheduled task processor",
	Long: `schedkit materializes due scheduled tasks into concrete tasks, per
tenant schema, with recurrence and audit logging. Batches are safe to run
concurrently: overlapping invocations partition the due set instead of
double-processing it.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SCHEDKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "schedkit.yml", "config file path")
	rootCmd.PersistentFlags().String("database-url", "", "database URL (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides config)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(drainCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(cronCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantsCmd())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.FromFile(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if url := viper.GetString("database-url"); url != "" {
		cfg.Database.URL = url
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}

func buildWorker(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*worker.Worker, error) {
	wopts, err := cfg.WorkerOptions()
	if err != nil {
		return nil, err
	}
	return schedkit.NewWorker(schedkit.Options{
		Pool:   pool,
		Log:    log,
		Worker: wopts,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func drainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Process all currently due scheduled tasks once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			w, err := buildWorker(cfg, pool, log)
			if err != nil {
				return err
			}
			sum, err := w.DrainOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Completed: %d processed, %d failed\n", sum.Processed, sum.Failed)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drain due scheduled tasks on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			w, err := buildWorker(cfg, pool, log)
			if err != nil {
				return err
			}
			log.Info("worker started")
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func cronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "Drain due scheduled tasks on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Cron.Spec) == "" {
				return fmt.Errorf("config.cron.spec is required for cron mode")
			}
			log := newLogger(cfg)
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			w, err := buildWorker(cfg, pool, log)
			if err != nil {
				return err
			}

			loc := time.Local
			if tz := strings.TrimSpace(cfg.Cron.Timezone); tz != "" {
				loc, err = time.LoadLocation(tz)
				if err != nil {
					return fmt.Errorf("invalid config.cron.timezone: %w", err)
				}
			}
			runner, err := schedcron.New(schedcron.Options{
				Spec:     cfg.Cron.Spec,
				Worker:   w,
				Log:      log,
				Location: loc,
			})
			if err != nil {
				return err
			}

			runner.Start()
			log.Info("cron runner started", slog.String("spec", cfg.Cron.Spec))
			<-ctx.Done()
			<-runner.Stop().Done()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schedkit tables to tenant schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if schema != "" {
				return migrate.ApplyPostgres(ctx, pool, schema)
			}

			tl, err := tenants.NewRepo(pool).ListActive(ctx)
			if err != nil {
				return err
			}
			schemas := make([]string, len(tl))
			for i, t := range tl {
				schemas[i] = t.SchemaName
			}
			if err := migrate.ApplyAll(ctx, pool, schemas); err != nil {
				return err
			}
			fmt.Printf("Migrated %d tenant schemas\n", len(schemas))
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "apply to a single tenant schema")
	return cmd
}

func tenantsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tenants", Short: "Inspect tenants"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active tenant schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			tl, err := tenants.NewRepo(pool).ListActive(ctx)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"SCHEMA", "NAME"})
			for _, t := range tl {
				tw.AppendRow(table.Row{t.SchemaName, t.Name})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}
