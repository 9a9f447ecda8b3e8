package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/config"
	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/firestore"
	"github.com/evcraddock/trackmate/internal/logging"
	"github.com/evcraddock/trackmate/internal/visit"
	"github.com/evcraddock/trackmate/internal/visitcode"
	"github.com/evcraddock/trackmate/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server.

Configuration comes from trackmate.yaml, .env and TM_* environment variables;
--port and --db override the file and environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, port, dbPath)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.config/tm/trackmate.db)")

	return cmd
}

func runServe(ctx context.Context, port int, dbPath string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logging.Setup(cfg.DevMode, cfg.LogLevel); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logging.Sync()

	if port == 0 {
		port = cfg.Server.Port
	}
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	// Expenses always live in SQLite.
	database, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	opts := web.Options{
		Expenses:    expense.NewRepository(database),
		Logger:      logging.Log,
		MaxPageSize: cfg.Server.MaxPageSize,
	}

	switch cfg.Store.Driver {
	case config.DriverFirestore:
		fs, source, err := firestore.New(ctx, cfg.Firestore)
		if err != nil {
			return err
		}
		defer func() { _ = fs.Close() }()
		logging.Log.Info("using firestore store",
			zap.String("project", cfg.Firestore.ProjectID),
			zap.String("credentials", source))

		opts.Visits = firestore.NewVisitStore(fs)
		opts.Codes = visitcode.NewRegistry(firestore.NewCounter(fs), logging.Log)
		opts.Health = func(ctx context.Context) error { return firestore.Ping(ctx, fs) }
	default:
		logging.Log.Info("using sqlite store")
		opts.Visits = visit.NewRepository(database)
		opts.Codes = visitcode.NewRegistry(visitcode.NewSQLCounter(database), logging.Log)
		opts.Health = database.PingContext
	}

	srv, err := web.NewServer(opts)
	if err != nil {
		return err
	}

	logging.Log.Info("starting server", zap.Int("port", port), zap.String("driver", cfg.Store.Driver))
	return srv.ListenAndServe(ctx, port)
}
