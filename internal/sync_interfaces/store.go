package sync_interfaces

import (
	"context"
	"sync_service/internal/domain/models"
)

// VacancyStore - постоянное хранилище вакансий. Все три операции пакетные;
// хранилище без пакетной проверки существования не поддерживается
type VacancyStore interface {
	// Target - имя логического хранилища, сверки с одним Target выполняются последовательно
	Target() string
	// ExistingByKeys находит записи, у которых identity или составной ключ входит в keys,
	// и возвращает их в models.ExistingSet. Хранилище держит составной ключ рядом с identity
	ExistingByKeys(ctx context.Context, keys []models.IdentityKey) (models.ExistingSet, error)
	// UpsertBatch записывает пачку целиком или не записывает ничего; повторная вставка безопасна
	UpsertBatch(ctx context.Context, records []models.CandidateRecord) error
	// UpdateBatch обновляет пачку существующих записей целиком или не обновляет ничего
	UpdateBatch(ctx context.Context, updates []models.PlannedUpdate) error
}
