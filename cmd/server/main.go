package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"whatsapp-lead-logger/internal/api"
	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/internal/database"
	"whatsapp-lead-logger/internal/graph"
	"whatsapp-lead-logger/internal/logger"
	"whatsapp-lead-logger/internal/sheets"
	"whatsapp-lead-logger/internal/sink"
	"whatsapp-lead-logger/internal/stream"
	"whatsapp-lead-logger/internal/webhook"
	"whatsapp-lead-logger/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(logg)
	go hub.Run(ctx)

	sinks := []sink.Named{
		{Name: "sheets", Sink: sheets.NewSink(cfg.Sheets, logg)},
		{Name: "feed", Sink: hub},
	}

	var reader api.LeadReader
	if cfg.Archive.Enabled {
		db, err := database.Open(cfg.Archive, logg)
		if err != nil {
			return err
		}
		defer database.Close(db)
		store := database.NewLeadStore(db)
		sinks = append(sinks, sink.Named{Name: "archive", Sink: store})
		reader = store
	}

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		pub := stream.NewPublisher(stream.NewWriter(brokers, cfg.Kafka.Topic))
		defer pub.Close()
		sinks = append(sinks, sink.Named{Name: "kafka", Sink: pub})
		logg.Info().Strs("brokers", brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing leads to Kafka")
	}

	if cfg.CampaignPrefix != "" {
		logg.Info().Str("prefix", cfg.CampaignPrefix).Msg("Only leads whose campaign starts with prefix are recorded")
	}

	webhookHandler := webhook.NewHandler(cfg, graph.NewClient(cfg.Graph, logg), sink.NewMulti(logg, sinks...), logg)
	leadHandler := api.NewLeadHandler(reader, logg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(logg, webhookHandler, leadHandler, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logg.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(logg zerolog.Logger, webhookHandler *webhook.Handler, leadHandler *api.LeadHandler, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(logg))

	r.GET("/healthz", api.Health)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Dashboard Routes
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/leads", leadHandler.GetLeads)
		apiGroup.GET("/leads/export", leadHandler.ExportLeads)
	}
	r.GET("/ws/leads", gin.WrapF(hub.ServeWs))

	return r
}
