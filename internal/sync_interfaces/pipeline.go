package sync_interfaces

import (
	"context"
	"sync_service/internal/domain/models"
)

// Searcher - агрегированный поиск по провайдерам
type Searcher interface {
	ProviderNames() []string
	Search(ctx context.Context, providers []string, query models.Query) (models.SearchResult, error)
}

// Syncer - сверка и запись кандидатов в постоянное хранилище
type Syncer interface {
	Sync(ctx context.Context, candidates []models.CandidateRecord) (models.ApplyResult, error)
}

// Job - задача в очереди менеджера синхронизации
type Job interface {
	GetID() string
}
