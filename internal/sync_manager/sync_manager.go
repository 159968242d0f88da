// Менеджер синхронизации: очередь джоб и один воркер, который выполняет поиск и запись в хранилище
package sync_manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync_service/internal/domain/models"
	"sync_service/internal/jobs"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"sync_service/shared/queue"
	"time"
)

var (
	ErrQueueFull     = errors.New("sync queue is full")
	ErrManagerClosed = errors.New("sync manager is shut down")
)

const (
	defaultEnqueueTimeout = 5 * time.Second
	enqueueRetryInterval  = 50 * time.Millisecond
)

type SyncManager struct {
	searcher sync_interfaces.Searcher
	syncer   sync_interfaces.Syncer
	logger   *logging.Logger

	jobQueue       *queue.FIFOQueue[sync_interfaces.Job]
	enqueueTimeout time.Duration
	closed         chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

// NewSyncManager создаёт менеджер и запускает воркер. Воркер один, поэтому
// синхронизации выполняются строго по очереди
func NewSyncManager(searcher sync_interfaces.Searcher, syncer sync_interfaces.Syncer, queueCapacity int, logger *logging.Logger) (*SyncManager, error) {
	if searcher == nil || syncer == nil {
		return nil, errors.New("searcher and syncer are required")
	}
	m := &SyncManager{
		searcher:       searcher,
		syncer:         syncer,
		logger:         logger.With("component", "sync_manager"),
		jobQueue:       queue.NewFIFOQueue[sync_interfaces.Job](queueCapacity),
		enqueueTimeout: defaultEnqueueTimeout,
		closed:         make(chan struct{}),
	}

	m.wg.Add(1)
	go m.worker()

	return m, nil
}

// SyncVacancies ставит джобу в очередь и ждёт её результата.
// При ошибке записи возвращается частичный итог вместе с *models.ReconciliationError
func (m *SyncManager) SyncVacancies(ctx context.Context, providers []string, query models.Query) (models.SyncSummary, error) {
	select {
	case <-m.closed:
		return models.SyncSummary{}, ErrManagerClosed
	default:
	}

	job := jobs.NewSyncJob(ctx, providers, query)
	if err := m.tryEnqueueJob(ctx, job); err != nil {
		return models.SyncSummary{}, err
	}
	m.logger.Debug("sync job enqueued", "job_id", job.ID, "queue_size", m.jobQueue.Size())

	select {
	case out := <-job.ResultChan:
		summary, _ := out.Data.(models.SyncSummary)
		return summary, out.Error
	case <-ctx.Done():
		return models.SyncSummary{}, ctx.Err()
	}
}

// QueueSize - количество джоб, ожидающих воркера
func (m *SyncManager) QueueSize() int {
	return m.jobQueue.Size()
}

// добавление джобы в очередь с повторными попытками в течение таймаута
func (m *SyncManager) tryEnqueueJob(ctx context.Context, job sync_interfaces.Job) error {
	deadline := time.Now().Add(m.enqueueTimeout)
	for {
		if m.jobQueue.Enqueue(job) {
			return nil
		}
		select {
		case <-m.closed:
			return ErrManagerClosed
		default:
		}
		if time.Now().After(deadline) {
			return ErrQueueFull
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueRetryInterval):
		}
	}
}

func (m *SyncManager) worker() {
	defer m.wg.Done()

	// канал очереди закрывается в Shutdown, оставшиеся джобы дорабатываются
	for job := range m.jobQueue.Items() {
		switch j := job.(type) {
		case *jobs.SyncJob:
			m.processSyncJob(j)
		default:
			m.logger.Warn("unknown job type", "job_id", job.GetID())
		}
	}
}

func (m *SyncManager) processSyncJob(job *jobs.SyncJob) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("sync job panicked", "job_id", job.ID, "panic", fmt.Sprint(r))
			job.Complete(models.SyncSummary{}, fmt.Errorf("sync job panicked: %v", r))
		}
	}()

	if err := job.Ctx.Err(); err != nil {
		m.logger.Info("sync job cancelled before start", "job_id", job.ID, "waited", time.Since(job.CreatedAt))
		job.Complete(models.SyncSummary{}, err)
		return
	}

	summary, err := m.runSync(job.Ctx, job.Providers, job.Query)
	if err != nil {
		m.logger.Warn("sync job failed", "job_id", job.ID, "error", err.Error())
	} else {
		m.logger.Info("sync job finished",
			"job_id", job.ID,
			"records", len(summary.Records),
			"inserted", summary.Inserted,
			"updated", summary.Updated,
			"unchanged", summary.Unchanged,
			"provider_errors", len(summary.ProviderErrors),
			"duration", summary.Duration)
	}
	job.Complete(summary, err)
}

func (m *SyncManager) runSync(ctx context.Context, providers []string, query models.Query) (models.SyncSummary, error) {
	start := time.Now()

	result, err := m.searcher.Search(ctx, providers, query)
	if err != nil {
		return models.SyncSummary{}, err
	}

	summary := models.SyncSummary{
		Records:           result.Records,
		DuplicatesSkipped: result.DuplicatesSkipped,
		ProviderErrors:    result.ProviderErrors,
	}

	applied, err := m.syncer.Sync(ctx, result.Records)
	summary.ApplyResult = applied
	summary.Duration = time.Since(start)
	return summary, err
}

// Shutdown закрывает очередь и ждёт, пока воркер доработает оставшиеся джобы
func (m *SyncManager) Shutdown(ctx context.Context) error {
	m.closeOnce.Do(func() {
		close(m.closed)
		m.jobQueue.Close()
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("sync worker stopped gracefully")
		return nil
	case <-ctx.Done():
		dropped := m.failQueuedJobs()
		m.logger.Warn("shutdown timeout, sync worker may still be running", "dropped_jobs", dropped)
		return ctx.Err()
	}
}

// failQueuedJobs забирает из очереди джобы, до которых воркер не дошёл,
// и сразу отвечает их вызывающим ErrManagerClosed
func (m *SyncManager) failQueuedJobs() int {
	dropped := 0
	for {
		job, ok := m.jobQueue.Dequeue()
		if !ok {
			return dropped
		}
		if j, ok := job.(*jobs.SyncJob); ok {
			j.Complete(models.SyncSummary{}, ErrManagerClosed)
		}
		dropped++
	}
}
