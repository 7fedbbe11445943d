package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"survey-bot/internal/config"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/domain/survey"
	"survey-bot/internal/infra/handlers"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/infra/metrics"
	"survey-bot/internal/infra/provider"
	"survey-bot/internal/infra/routes"
	"survey-bot/internal/infra/services"
	"survey-bot/internal/middleware"
	"survey-bot/internal/util"
)

const (
	botName         = "WhatsApp Bot"
	shutdownTimeout = 5 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ScriptFile = scriptPath(opts, cfg.ScriptFile)

	log := logger.NewLogger(ctx, cfg.LogJSON, cfg.LogLevel)

	script, err := survey.Load(cfg.ScriptFile)
	if err != nil {
		return err
	}
	keys := make([]string, 0, script.QuestionCount())
	for _, q := range script.Questions {
		keys = append(keys, q.Key)
	}

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info(fmt.Sprintf("Contact store ready (%s)", cfg.StoreBackend))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var whatsAppProvider Iservices.IWhatsAppProvider
	switch cfg.Provider {
	case config.ProviderInfobip:
		whatsAppProvider = provider.NewInfobipWhatsAppProvider(log, httpClient, cfg.Infobip)
	default:
		whatsAppProvider = provider.NewMetaCloudProvider(log, httpClient, cfg.Meta)
	}

	sinks := []Iservices.ISurveySink{services.NewCSVSink(cfg.CSVFile, keys)}
	if cfg.RemoteSinkURL != "" {
		sinks = append(sinks, services.NewRemoteSink(cfg.RemoteSinkURL, keys, httpClient))
	}
	if cfg.SQLitePath != "" {
		sqliteSink, err := services.NewSQLiteSink(ctx, cfg.SQLitePath, keys)
		if err != nil {
			return err
		}
		defer sqliteSink.Close()
		sinks = append(sinks, sqliteSink)
	}
	publisher := services.NewSurveyPublisher(log, recorder, cfg.SinkTimeout, sinks...)

	conversation := services.NewConversationService(log, repo, script, publisher, recorder, cfg.AnalysisDelay)
	channel := services.NewChannelService(log, conversation, whatsAppProvider, recorder, cfg.DebounceDelay, cfg.TypingMinDelay, cfg.TypingMaxDelay)

	keepAlive := handlers.NewKeepAliveHandlers(log, botName)

	router := mux.NewRouter()
	router.Use(middleware.CORSMiddleware, middleware.LoggingMiddleware(log))
	routes.NewRoutes(
		router,
		handlers.NewHttpHandlers(log, cfg.Meta.VerifyToken, channel),
		handlers.NewInfobipHandlers(log, channel),
		keepAlive,
		registry,
	).Init()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server is running on port %s with the %s provider and %d question(s)", cfg.Port, cfg.Provider, script.QuestionCount()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go heartbeat(ctx, log, keepAlive.Started)

	select {
	case err := <-serverErr:
		log.Error(fmt.Sprintf("Error running HTTP server: %s", err))
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	if err := channel.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Turns still running at shutdown were cancelled: %v", err))
	}
	publisher.Wait()

	log.Info("Server stopped gracefully.")
	return nil
}

// heartbeat logs the uptime once a minute until ctx ends.
func heartbeat(ctx context.Context, log *logger.Logger, started time.Time) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Info(fmt.Sprintf("Keep-alive ativo - Uptime: %s", util.FormatHoursMinutesSeconds(time.Since(started))))
		}
	}
}
