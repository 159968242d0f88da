// Сверка кандидатов с постоянным хранилищем и пакетная запись
package reconciler

import (
	"context"
	"sync"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"time"
)

// блокировки по логическому хранилищу: проверка существования и запись не должны
// перемежаться с другой сверкой того же хранилища
var targetLocks sync.Map // map[string]*sync.Mutex

func lockFor(target string) *sync.Mutex {
	mu, _ := targetLocks.LoadOrStore(target, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

type Reconciler struct {
	store     sync_interfaces.VacancyStore
	chunkSize int
	batchSize int
	logger    *logging.Logger
}

func NewReconciler(store sync_interfaces.VacancyStore, cfg *configs.ReconcilerConfig, logger *logging.Logger) *Reconciler {
	defaults := configs.DefaultReconcilerConfig()
	if cfg == nil {
		cfg = defaults
	}
	target := "none"
	if store != nil {
		target = store.Target()
	}
	r := &Reconciler{
		store:     store,
		chunkSize: cfg.ExistenceChunkSize,
		batchSize: cfg.WriteBatchSize,
		logger:    logger.With("component", "reconciler", "target", target),
	}
	if r.chunkSize <= 0 {
		r.chunkSize = defaults.ExistenceChunkSize
	}
	if r.batchSize <= 0 {
		r.batchSize = defaults.WriteBatchSize
	}
	return r
}

// Sync выполняет Reconcile и Apply под блокировкой хранилища
func (r *Reconciler) Sync(ctx context.Context, candidates []models.CandidateRecord) (models.ApplyResult, error) {
	if r.store == nil {
		return models.ApplyResult{}, models.ErrStoreNotConfigured
	}

	mu := lockFor(r.store.Target())
	mu.Lock()
	defer mu.Unlock()

	plan, err := r.Reconcile(ctx, candidates)
	if err != nil {
		return models.ApplyResult{}, err
	}
	return r.Apply(ctx, plan)
}

// Reconcile делит кандидатов на новые и существующие одной пакетной проверкой на чанк кандидатов.
// Кандидат ищется и по identity, и по составному ключу, как его связывает дедупликация.
// Каждый кандидат попадает ровно в один из списков. Без внешней блокировки
// результат может устареть к моменту Apply, для конкурентного использования есть Sync
func (r *Reconciler) Reconcile(ctx context.Context, candidates []models.CandidateRecord) (models.ReconciliationPlan, error) {
	if r.store == nil {
		return models.ReconciliationPlan{}, models.ErrStoreNotConfigured
	}
	existing := make(models.ExistingSet, len(candidates))
	for start := 0; start < len(candidates); start += r.chunkSize {
		end := min(start+r.chunkSize, len(candidates))
		keys := lookupKeys(candidates[start:end])
		if len(keys) == 0 {
			continue
		}
		found, err := r.store.ExistingByKeys(ctx, keys)
		if err != nil {
			return models.ReconciliationPlan{}, &models.ReconciliationError{
				Stage:     models.StageExistenceCheck,
				Remaining: candidates,
				Err:       err,
			}
		}
		for _, rec := range found {
			existing.Add(rec)
		}
	}

	plan := models.ReconciliationPlan{
		ToInsert: make([]models.CandidateRecord, 0),
		ToUpdate: make([]models.PlannedUpdate, 0),
	}
	for _, c := range candidates {
		if ex, ok := existing.Lookup(c); ok {
			plan.ToUpdate = append(plan.ToUpdate, models.PlannedUpdate{
				ExistingID: ex.ID,
				Record:     c,
				Changed:    ex.ContentHash != c.ContentHash() || ex.FallbackKey != c.FallbackKey(),
			})
			continue
		}
		plan.ToInsert = append(plan.ToInsert, c)
	}

	r.logger.Debug("reconciliation plan built",
		"candidates", len(candidates),
		"to_insert", len(plan.ToInsert),
		"to_update", len(plan.ToUpdate))
	return plan, nil
}

// Apply пишет вставки и изменённые обновления пачками. Каждая пачка атомарна;
// при ошибке возвращается частичный итог и *models.ReconciliationError с незаписанным остатком
func (r *Reconciler) Apply(ctx context.Context, plan models.ReconciliationPlan) (models.ApplyResult, error) {
	if r.store == nil {
		return models.ApplyResult{}, models.ErrStoreNotConfigured
	}
	start := time.Now()
	var result models.ApplyResult

	for from := 0; from < len(plan.ToInsert); from += r.batchSize {
		to := min(from+r.batchSize, len(plan.ToInsert))
		if err := r.store.UpsertBatch(ctx, plan.ToInsert[from:to]); err != nil {
			r.logger.Error("insert batch failed", "succeeded", result.Inserted, "error", err.Error())
			return result, &models.ReconciliationError{
				Stage:     models.StageInsert,
				Succeeded: result.Inserted,
				Remaining: plan.ToInsert[from:],
				Err:       err,
			}
		}
		result.Inserted += distinctIdentities(plan.ToInsert[from:to])
	}

	changed := make([]models.PlannedUpdate, 0, len(plan.ToUpdate))
	for _, u := range plan.ToUpdate {
		if u.Changed {
			changed = append(changed, u)
		} else {
			result.Unchanged++
		}
	}

	for from := 0; from < len(changed); from += r.batchSize {
		to := min(from+r.batchSize, len(changed))
		if err := r.store.UpdateBatch(ctx, changed[from:to]); err != nil {
			r.logger.Error("update batch failed", "succeeded", result.Updated, "error", err.Error())
			return result, &models.ReconciliationError{
				Stage:     models.StageUpdate,
				Succeeded: result.Updated,
				Remaining: recordsOf(changed[from:]),
				Err:       err,
			}
		}
		result.Updated += to - from
	}

	r.logger.Info("reconciliation applied",
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"duration", time.Since(start))
	return result, nil
}

// lookupKeys - ключи чанка без повторов
func lookupKeys(candidates []models.CandidateRecord) []models.IdentityKey {
	seen := make(map[models.IdentityKey]struct{}, len(candidates)*2)
	keys := make([]models.IdentityKey, 0, len(candidates)*2)
	for _, c := range candidates {
		for _, k := range c.LookupKeys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// distinctIdentities - сколько строк реально записывает пачка: повторы ключа сливаются в одну
func distinctIdentities(records []models.CandidateRecord) int {
	seen := make(map[models.IdentityKey]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Identity()] = struct{}{}
	}
	return len(seen)
}

func recordsOf(updates []models.PlannedUpdate) []models.CandidateRecord {
	out := make([]models.CandidateRecord, len(updates))
	for i, u := range updates {
		out[i] = u.Record
	}
	return out
}
