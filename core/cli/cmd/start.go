package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mongopad/mongopad/core/config"
	"github.com/mongopad/mongopad/core/engine"
	"github.com/mongopad/mongopad/core/logger"
	"github.com/mongopad/mongopad/core/runtime/connectors"
	"github.com/mongopad/mongopad/core/runtime/runner"
	"github.com/mongopad/mongopad/core/storage"
	transport "github.com/mongopad/mongopad/core/transport/http"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:           "start",
	Short:         "Run the mongopad server",
	RunE:          startServer,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVarP(&port, "port", "p", "", "Server port (overrides PORT env var)")
	startCmd.Flags().IntVar(&logLevel, "log-level", 0, "Log level: 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG")
	startCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging (sets log level to DEBUG)")
}

func startServer(cmd *cobra.Command, args []string) error {
	log := logger.New("start")

	cfg, err := config.Load()
	if err != nil {
		return log.Errorf("configuration error: %v", err)
	}
	if port != "" {
		cfg.Port = port
	}
	if logLevel != 0 {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = logger.LogLevelDebug
	}
	logger.SetLogLevel(cfg.LogLevel)

	// Open the MongoDB handle and the history store in parallel
	var mongoConn *connectors.MongoDBConnector
	var store storage.Store

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var connErr error
		mongoConn, connErr = connectors.NewMongoDBConnector(cfg.MongoURL)
		return connErr
	})
	g.Go(func() error {
		if cfg.DatabaseURL == "" {
			store = storage.NewMemoryStore()
			return nil
		}
		var storeErr error
		store, storeErr = storage.NewPostgresStore(gctx, cfg.DatabaseURL)
		return storeErr
	})
	if err := g.Wait(); err != nil {
		if mongoConn != nil {
			_ = mongoConn.Close()
		}
		if store != nil {
			_ = store.Close()
		}
		return log.Errorf("startup failed: %v", err)
	}

	eng := engine.New(mongoConn.Client(), mongoConn.DefaultDatabaseName())
	run := runner.New(eng, store)

	srv := transport.NewServer(cfg.Port)
	transport.RegisterRoutes(srv.Router(), store, run)
	if err := srv.StartAsync(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infof("Shutting down")
	_ = srv.Stop()

	// Close backends in parallel, collecting errors
	var cg errgroup.Group
	cg.Go(mongoConn.Close)
	cg.Go(store.Close)
	if err := cg.Wait(); err != nil {
		log.PrintError("Error during shutdown", err)
	}
	return nil
}
