package sync_server

import (
	"context"
	"errors"
	"net/http"
	"sync_service/internal/sync_server/dto"
	"sync_service/internal/sync_server/handlers"
	"sync_service/shared/config"
	"sync_service/shared/logging"
	"sync_service/shared/middleware"

	"github.com/gin-gonic/gin"
)

// структура сервера синхронизации вакансий
type VacancySyncServer struct {
	httpServer *http.Server
	router     *gin.Engine
	config     *config.ServerConfig
	Handler    *handlers.SyncHandler
	logger     *logging.Logger
}

// Конструктор для сервера
func NewSyncServer(config *config.ServerConfig, handler *handlers.SyncHandler, logger *logging.Logger) (*VacancySyncServer, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(config.AllowedOrigins))

	s := &VacancySyncServer{
		router:  router,
		config:  config,
		Handler: handler,
		logger:  logger.With("component", "http_server"),
	}
	s.SetUpRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Addr(),
		Handler:        router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s, nil
}

// Метод для маршрутизации сервера
func (s *VacancySyncServer) SetUpRoutes() {
	s.router.GET("/hello", s.Handler.EchoSyncServer)

	api := s.router.Group("/", middleware.APIKeyMiddleware(s.config.APIKey))
	api.POST("/search", middleware.ValidateRequestMiddleware(&dto.SearchRequest{}), s.Handler.ProcessSearchRequest)
	api.POST("/sync", middleware.ValidateRequestMiddleware(&dto.SearchRequest{}), s.Handler.ProcessSyncRequest)
	api.GET("/providers/status", s.Handler.ProcessProvidersStatus)
	api.POST("/cache/clear", middleware.ValidateRequestMiddleware(&dto.CacheClearRequest{}), s.Handler.ProcessCacheClear)
}

// Router - для тестов через httptest
func (s *VacancySyncServer) Router() http.Handler {
	return s.router
}

// Метод для запуска сервера, блокирует до остановки
func (s *VacancySyncServer) Run() error {
	s.logger.Info("sync server is running", "addr", s.config.Addr())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Метод для graceful shutdown: сначала HTTP сервер, потом сервисный слой
func (s *VacancySyncServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.Handler.ShutDown(ctx)

	s.logger.Info("server shutdown completed")
	return nil
}
