// хэндлеры сервера синхронизации
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_server/converters"
	"sync_service/internal/sync_server/dto"
	"sync_service/internal/sync_server/service"
	"sync_service/shared/logging"
	"sync_service/shared/middleware"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	service service.SyncServiceInterface
	logger  *logging.Logger
}

func NewSyncHandler(service service.SyncServiceInterface, logger *logging.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		logger:  logger.With("component", "sync_handler"),
	}
}

// метод для теста запуска сервера
func (h *SyncHandler) EchoSyncServer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from sync server!"})
}

// метод хэндлера для остановки сервисного слоя
func (h *SyncHandler) ShutDown(ctx context.Context) {
	h.service.StopServices(ctx)
}

// POST /search - поиск по провайдерам без записи в хранилище
func (h *SyncHandler) ProcessSearchRequest(c *gin.Context) {
	req, ok := validated[dto.SearchRequest](c)
	if !ok {
		return
	}

	result, err := h.service.SearchVacancies(c.Request.Context(), req.Providers, converters.SearchRequestDTOToQuery(*req))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, converters.SearchResultToDTO(result))
}

// POST /sync - поиск, сверка и запись в хранилище
func (h *SyncHandler) ProcessSyncRequest(c *gin.Context) {
	req, ok := validated[dto.SearchRequest](c)
	if !ok {
		return
	}

	summary, err := h.service.SyncVacancies(c.Request.Context(), req.Providers, converters.SearchRequestDTOToQuery(*req))
	if err != nil {
		var re *models.ReconciliationError
		if errors.As(err, &re) {
			// запись прервана, отдаём частичный итог
			h.logger.Warn("sync finished with store error", "stage", string(re.Stage), "succeeded", re.Succeeded)
			c.JSON(http.StatusBadGateway, converters.SyncSummaryToDTO(summary, err))
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, converters.SyncSummaryToDTO(summary, nil))
}

// GET /providers/status
func (h *SyncHandler) ProcessProvidersStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": converters.ProviderStatusesToDTO(h.service.ProviderStatuses())})
}

// POST /cache/clear
func (h *SyncHandler) ProcessCacheClear(c *gin.Context) {
	req, ok := validated[dto.CacheClearRequest](c)
	if !ok {
		return
	}

	removed, err := h.service.ClearCache(c.Request.Context(), req.Providers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CacheClearResponse{Success: true, Removed: removed})
}

func (h *SyncHandler) respondError(c *gin.Context, err error) {
	code, apiErr := ToAPIError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", c.FullPath(),
			"request_id", middleware.RequestIDFromContext(c.Request.Context()),
			"error", err.Error())
	}
	c.JSON(code, gin.H{"status code": code, "error": apiErr})
}

// validated достаёт из контекста запрос, проверенный ValidateRequestMiddleware
func validated[T any](c *gin.Context) (*T, bool) {
	data, exists := c.Get(middleware.ValidatedDataKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation data not found"})
		return nil, false
	}
	req, ok := data.(*T)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return nil, false
	}
	return req, true
}
