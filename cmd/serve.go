package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/herald-sh/herald/internal/api"
	"github.com/herald-sh/herald/internal/broker"
	"github.com/herald-sh/herald/internal/build"
	"github.com/herald-sh/herald/internal/config"
	"github.com/herald-sh/herald/internal/consumer"
	"github.com/herald-sh/herald/internal/delivery"
	"github.com/herald-sh/herald/internal/dispatch"
	"github.com/herald-sh/herald/internal/logger"
	"github.com/herald-sh/herald/internal/maintenance"
	"github.com/herald-sh/herald/internal/metrics"
	"github.com/herald-sh/herald/internal/provider"
	"github.com/herald-sh/herald/internal/server"
	"github.com/herald-sh/herald/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the delivery engine",
	Long: `Run the delivery engine: declare the broker topology, consume auth
events from the main queue, and serve the admin API.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Admin HTTP port (overrides HERALD_ADMIN_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.AdminPort, _ = cmd.Flags().GetInt("port")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), true)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	sysLogger.Info("herald starting",
		slog.String("version", build.String()),
		slog.String("data_dir", cfg.DataDir),
		slog.Int("admin_port", cfg.AdminPort),
	)

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if fresh {
		sysLogger.Info("created new database", "path", cfg.DBPath())
	}

	messages := storage.NewSQLiteMessageStore(db)
	requests := storage.NewSQLiteRequestStore(db)
	attempts := storage.NewSQLiteAttemptStore(db)
	preferences := storage.NewSQLitePreferenceStore(db)
	templates := storage.NewSQLiteTemplateStore(db)
	recipients := storage.NewSQLiteRecipientStore(db)

	if cfg.TemplatesFile != "" {
		n, err := storage.SeedTemplates(ctx, templates, cfg.TemplatesFile)
		if err != nil {
			return fmt.Errorf("seeding templates: %w", err)
		}
		sysLogger.Info("seeded templates", "count", n, "file", cfg.TemplatesFile)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	dispatchers, err := buildDispatchers(cfg)
	if err != nil {
		return err
	}

	deliverer := delivery.New(delivery.Config{
		Dispatchers: dispatchers,
		Addresses:   recipients,
		Preferences: preferences,
		Templates:   templates,
		Requests:    requests,
		Attempts:    attempts,
		Logger:      sysLogger,
		Metrics:     m,
	})

	client, err := broker.Dial(cfg.BrokerURL)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer func() { _ = client.Close() }()

	topology := broker.DefaultTopology(cfg.UpstreamExchange)
	if err := topology.Declare(client.Channel()); err != nil {
		return fmt.Errorf("declaring broker topology: %w", err)
	}
	sysLogger.Info("broker topology declared",
		"upstream_exchange", topology.UpstreamExchange, "main_queue", topology.MainQueue)

	registry := consumer.NewRegistry()
	consumer.NewHandlers(deliverer, messages, requests, sysLogger).RegisterAll(registry)

	publisher := broker.NewTierPublisher(client.Channel(), topology)
	cons := consumer.New(registry, publisher, sysLogger, m)

	maint, err := maintenance.New(maintenance.Config{
		Requests:  requests,
		Logger:    sysLogger,
		Retention: cfg.RetentionWindow(),
	})
	if err != nil {
		return fmt.Errorf("creating maintenance scheduler: %w", err)
	}
	if err := maint.Start(); err != nil {
		return fmt.Errorf("starting maintenance scheduler: %w", err)
	}
	defer func() {
		if err := maint.Stop(); err != nil {
			sysLogger.Warn("maintenance scheduler shutdown", "error", err)
		}
	}()

	apiSrv := api.New(preferences, templates, requests, attempts, recipients, sysLogger)
	srv := server.New(apiSrv, reg, cfg.AdminPort, sysLogger)

	errCh := make(chan error, 1)
	go func() {
		err := cons.Run(ctx, client.Channel(), topology.MainQueue)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("consumer: %w", err)
		}
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// buildDispatchers wires the channel dispatchers from provider config. Email
// is always on; SMS joins only when a gateway URL is configured, so a
// deployment without an SMS contract silently skips that channel.
func buildDispatchers(cfg *config.AppConfig) (dispatch.Registry, error) {
	email, err := dispatch.NewEmailDispatcher(provider.NewSMTPProvider(provider.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		FromAddr:   cfg.SMTPFrom,
		Encryption: cfg.SMTPEncryption,
	}), "", cfg.UnsubscribeURL)
	if err != nil {
		return nil, fmt.Errorf("creating email dispatcher: %w", err)
	}

	dispatchers := []dispatch.Dispatcher{email}
	if cfg.SMSGatewayURL != "" {
		dispatchers = append(dispatchers, dispatch.NewSMSDispatcher(
			provider.NewSMSGatewayProvider(provider.SMSGatewayConfig{
				BaseURL: cfg.SMSGatewayURL,
				APIKey:  cfg.SMSAPIKey,
				From:    cfg.SMSFrom,
				Timeout: cfg.SMSTimeout,
			})))
	}
	return dispatch.NewRegistry(dispatchers...), nil
}
