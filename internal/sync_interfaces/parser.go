package sync_interfaces

import (
	"context"
	"sync_service/internal/domain/models"
	"time"
)

// Parser - провайдер вакансий: превращает запрос в нормализованные записи или *models.ProviderError
type Parser interface {
	GetName() string
	SearchVacancies(ctx context.Context, query models.Query) ([]models.CandidateRecord, error)
}

// Fetcher - источник записей провайдера с кэшированием
type Fetcher interface {
	Fetch(ctx context.Context, parser Parser, query models.Query) ([]models.CandidateRecord, error)
}

// CircuitStater - парсер, который сообщает состояние своего circuit breaker
type CircuitStater interface {
	CircuitState() string
}

// ParsersStatusManager учитывает результаты обращений к провайдерам
type ParsersStatusManager interface {
	UpdateStatus(name string, success bool, err error, responseTime time.Duration)
	GetAllStatuses() []models.ProviderStatus
}
