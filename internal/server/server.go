package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maplecart/apiserver/config"
	"github.com/maplecart/apiserver/internal/auth"
	"github.com/maplecart/apiserver/internal/db"
	"github.com/maplecart/apiserver/internal/events"
	"github.com/maplecart/apiserver/internal/handlers"
	"github.com/maplecart/apiserver/internal/logger"
	"github.com/maplecart/apiserver/internal/metrics"
	"github.com/maplecart/apiserver/internal/mq"
	"github.com/maplecart/apiserver/internal/services"
	"github.com/maplecart/apiserver/internal/storage"
	"github.com/maplecart/apiserver/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const serviceName = "maplecart-api"

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with its full middleware and route stack.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.New(serviceName, cfg.LogLevel)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	orderRepo := store.NewOrderRepository(dbConn)

	broker, publisher, err := newEventPublisher(ctx, cfg, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	receipts, err := newReceiptStorage(ctx, cfg)
	if err != nil {
		if broker != nil {
			_ = broker.Close()
		}
		_ = dbConn.Close()
		return nil, err
	}

	userService := services.NewUserService(userRepo)
	orderService := services.NewOrderService(orderRepo, publisher, receipts, log)

	tokens := auth.NewTokenService(cfg.JWTSecret)
	secureCookies := cfg.IsProduction()

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		metrics.Middleware(serviceName),
		handlers.OriginGuard(cfg.AllowedOrigins),
		handlers.Session(tokens),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, tokens, secureCookies, log)
	})
	router.Route("/orders", func(r chi.Router) {
		handlers.OrderRouter(r, orderService, log)
	})
	router.Route("/user/orders", func(r chi.Router) {
		handlers.UserOrderRouter(r, orderService, log)
	})
	router.Route("/admin/orders", func(r chi.Router) {
		handlers.AdminOrderRouter(r, orderService, log)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newEventPublisher(ctx context.Context, cfg config.Config, log zerolog.Logger) (*mq.MQ, *events.Publisher, error) {
	var backend mq.Backend
	var err error

	switch cfg.MQBackend {
	case "rabbitmq":
		backend, err = mq.NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = mq.NewPubSubClient(ctx, cfg.PubSub)
	case "":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
	if err != nil {
		return nil, nil, err
	}

	broker := mq.New(backend)
	return broker, events.NewPublisher(broker, log), nil
}

func newReceiptStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	var err error

	switch cfg.StorageBackend {
	case "minio":
		backend, err = storage.NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = storage.NewGCSClient(ctx, cfg.GCS)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}

	receipts := storage.NewStorage(backend)
	if err := receipts.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return receipts, nil
}
