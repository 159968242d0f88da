package handlers

import (
	"errors"
	"net/http"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_manager"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// функция - маппер доменных ошибок в HTTP статус и тело ответа
func ToAPIError(err error) (int, APIError) {
	var re *models.ReconciliationError
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, models.ErrInvalidSalaryBounds):
		return http.StatusBadRequest, APIError{Code: "INVALID_QUERY", Message: err.Error()}
	case errors.Is(err, models.ErrUnknownProvider):
		return http.StatusBadRequest, APIError{Code: "UNKNOWN_PROVIDER", Message: err.Error()}
	case errors.Is(err, models.ErrNoProviders):
		return http.StatusServiceUnavailable, APIError{Code: "NO_PROVIDERS", Message: err.Error()}
	case errors.Is(err, sync_manager.ErrQueueFull):
		return http.StatusServiceUnavailable, APIError{Code: "QUEUE_FULL", Message: "Too many sync requests, try again later"}
	case errors.Is(err, sync_manager.ErrManagerClosed):
		return http.StatusServiceUnavailable, APIError{Code: "SHUTTING_DOWN", Message: "Service is shutting down"}
	case errors.As(err, &re):
		return http.StatusBadGateway, APIError{Code: "STORE_WRITE_FAILED", Message: re.Error()}
	case errors.Is(err, models.ErrStoreNotConfigured):
		return http.StatusServiceUnavailable, APIError{Code: "STORE_NOT_CONFIGURED", Message: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "Something went wrong"}
	}
}
