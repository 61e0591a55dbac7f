package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/shardkit/shardkit/shardset"
)

// Config controls Server's listen address and auth.
type Config struct {
	Host string
	Port int
	// JWTSecret signs and verifies the bearer tokens Auth checks. Required;
	// an empty secret would make every token trivially forgeable.
	JWTSecret string
}

// Server is the optional read-only admin HTTP surface: list shards, show
// circuit-breaker state, liveness. The core library has zero HTTP
// dependency without it.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds a Server bound to shardMap. breakers may be nil.
func NewServer(cfg Config, shardMap *shardset.ShardMap, breakers BreakerStateReader, logger *zap.Logger) *Server {
	handler := NewHandler(shardMap, breakers)
	verifier := NewTokenVerifier(cfg.JWTSecret)

	router := mux.NewRouter()
	router.Use(CORS)
	router.Use(Recovery(logger))
	router.Use(Logging(logger))
	router.Use(Auth(verifier))

	handler.RegisterRoutes(router)
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%d/swagger/doc.json", cfg.Host, cfg.Port)),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe blocks serving the admin surface until an error occurs or
// Shutdown is called, in which case it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	s.logger.Info("adminapi server starting", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
