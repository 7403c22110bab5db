package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	landing "github.com/phbpx/landing"
	"github.com/phbpx/landing/capture"
	"github.com/phbpx/landing/handler"
	"github.com/phbpx/landing/mongodb"
	"github.com/phbpx/landing/pixel"
	"github.com/phbpx/landing/pkg/database"
	"github.com/phbpx/landing/pkg/logger"
	"github.com/phbpx/landing/postgres"
	"github.com/phbpx/landing/postgrest"
	"github.com/riandyrn/otelchi"
	"github.com/rs/cors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

func main() {

	log, err := logger.New("landing-api")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run("landing-api", log); err != nil {
		log.Errorw("startup", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(serverName string, log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	if err := godotenv.Load(); err != nil {
		log.Infow("startup", "status", "no .env file loaded")
	}

	cfg := struct {
		Http struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:30s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0:3000"`
			AllowedOrigins  []string      `conf:"default:*"`
			AssetsDir       string        `conf:"default:./assets"`
		}
		Store struct {
			Driver string `conf:"default:postgrest,help:postgrest|postgres|mongo"`
		}
		PostgREST struct {
			URL     string        `conf:"default:http://localhost:54321"`
			APIKey  string        `conf:"mask"`
			Table   string        `conf:"default:aplicacoes_mentoria"`
			Timeout time.Duration `conf:"default:10s"`
		}
		DB struct {
			User         string `conf:"default:leadsvc"`
			Password     string `conf:"default:leadsvc,mask"`
			Host         string `conf:"default:localhost"`
			Name         string `conf:"default:leads"`
			MaxIdleConns int    `conf:"default:2"`
			MaxOpenConns int    `conf:"default:0"`
			DisableTLS   bool   `conf:"default:true"`
		}
		Mongo struct {
			URI        string `conf:"default:mongodb://localhost:27017,mask"`
			Database   string `conf:"default:landing"`
			Collection string `conf:"default:aplicacoes_mentoria"`
		}
		Chat struct {
			Domain string `conf:"default:wa.me"`
			Phone  string `conf:"default:5516993084235"`
		}
		Pixel struct {
			ID          string
			AccessToken string `conf:"mask"`
			APIVersion  string `conf:"default:v18.0"`
			SourceURL   string
		}
		Form struct {
			DispatchDelay time.Duration `conf:"default:150ms"`
			Label         string        `conf:"default:Quero meu diagnóstico gratuito"`
			SendingLabel  string        `conf:"default:Enviando..."`
		}
		Jaeger struct {
			ReporterURI string  `conf:"default:http://localhost:14268/api/traces"`
			ServiceName string  `conf:"default:landing-api"`
			Probability float64 `conf:"default:0.5"`
		}
	}{}

	help, err := conf.Parse("LEAD", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// Lead Store Support

	log.Infow("startup", "status", "initializing lead store", "driver", cfg.Store.Driver)

	var store landing.LeadStore

	switch cfg.Store.Driver {
	case "postgrest":
		client, err := postgrest.NewClient(postgrest.Config{
			URL:     cfg.PostgREST.URL,
			APIKey:  cfg.PostgREST.APIKey,
			Table:   cfg.PostgREST.Table,
			Timeout: cfg.PostgREST.Timeout,
		})
		if err != nil {
			return fmt.Errorf("creating postgrest client: %w", err)
		}
		store = client

	case "postgres":
		db, err := database.Open(database.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			DisableTLS:   cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer func() {
			log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
			db.Close()
		}()

		log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name, "host", cfg.DB.Host)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("updating database schema: %w", err)
		}
		store = postgres.NewLeadStore(db)

	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return fmt.Errorf("connecting to mongo: %w", err)
		}
		defer func() {
			log.Infow("shutdown", "status", "stopping mongo support")
			client.Disconnect(context.Background())
		}()
		store = mongodb.NewLeadStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	// =========================================================================
	// Start Tracing Support

	log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

	traceProvider, err := startTracing(
		cfg.Jaeger.ServiceName,
		cfg.Jaeger.ReporterURI,
		cfg.Jaeger.Probability,
	)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())

	// =========================================================================
	// Conversion Tracking

	var tracker landing.Tracker
	pixelClient := pixel.NewClient(pixel.Config{
		PixelID:     cfg.Pixel.ID,
		AccessToken: cfg.Pixel.AccessToken,
		APIVersion:  cfg.Pixel.APIVersion,
		SourceURL:   cfg.Pixel.SourceURL,
	}, log)
	if pixelClient != nil {
		tracker = pixelClient
		defer pixelClient.Wait()
	}
	log.Infow("startup", "status", "conversion tracking", "enabled", pixelClient != nil)

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	link := landing.ChatLink{Domain: cfg.Chat.Domain, Phone: cfg.Chat.Phone}
	forms := capture.NewForms(func() *capture.Form {
		return capture.NewForm(store, tracker, link, log,
			capture.WithDispatchDelay(cfg.Form.DispatchDelay),
			capture.WithLabels(cfg.Form.Label, cfg.Form.SendingLabel),
		)
	})

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()
	leadHandler := handler.NewLeadHandler(forms, otelLog)
	pageHandler := handler.NewPageHandler(forms, otelLog)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(serverName, otelchi.WithChiRoutes(r)))

	r.Get("/", pageHandler.Index)
	r.Get("/health", handler.Health)
	r.Post("/leads", leadHandler.Submit)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.Http.AssetsDir))))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Http.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	})

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server", "host", cfg.Http.Host)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      c.Handler(r),
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func startTracing(serviceName, reporterURL string, probability float64) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(reporterURL)))
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(probability))),
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp,
			tracesdk.WithMaxExportBatchSize(tracesdk.DefaultMaxExportBatchSize),
			tracesdk.WithBatchTimeout(tracesdk.DefaultScheduleDelay*time.Millisecond),
		),
		// Record information about this application in a Resource.
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("exporter", "jaeger"),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
