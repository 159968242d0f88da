package jobs

import (
	"context"
	"sync_service/internal/domain/models"
	"time"

	"github.com/google/uuid"
)

// SyncJob - джоба синхронизации: поиск по провайдерам и запись в хранилище
type SyncJob struct {
	BaseJob
	Ctx       context.Context // контекст вызывающего, отменённая джоба не выполняется
	Providers []string
	Query     models.Query
}

func NewSyncJob(ctx context.Context, providers []string, query models.Query) *SyncJob {
	return &SyncJob{
		BaseJob: BaseJob{
			ID:         uuid.NewString(),
			ResultChan: make(chan *JobOutput, 1),
			CreatedAt:  time.Now(),
		},
		Ctx:       ctx,
		Providers: providers,
		Query:     query,
	}
}
