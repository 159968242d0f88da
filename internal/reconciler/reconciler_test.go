package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/shared/logging"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore - хранилище в памяти со счётчиками вызовов; строки хранятся по identity
type memStore struct {
	mu          sync.Mutex
	target      string
	rows        map[models.IdentityKey]models.ExistingRecord
	nextID      int
	existCalls  int
	upsertCalls int
	updateCalls int
	failUpsert  int // номер вызова UpsertBatch, который вернёт ошибку (с 1), 0 - без ошибок
	failUpdate  int
	inFlight    int
	maxInFlight int
}

func newMemStore(target string) *memStore {
	return &memStore{target: target, rows: make(map[models.IdentityKey]models.ExistingRecord)}
}

func (s *memStore) Target() string { return s.target }

func (s *memStore) ExistingByKeys(_ context.Context, keys []models.IdentityKey) (models.ExistingSet, error) {
	s.mu.Lock()
	s.existCalls++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	wanted := make(map[models.IdentityKey]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	out := make(models.ExistingSet)
	for _, row := range s.rows {
		if wanted[row.IdentityKey] || wanted[row.FallbackKey] {
			out.Add(row)
		}
	}
	return out, nil
}

func (s *memStore) UpsertBatch(_ context.Context, records []models.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.failUpsert == s.upsertCalls {
		return errors.New("connection reset")
	}
	for _, r := range records {
		id := r.Identity()
		row, ok := s.rows[id]
		if !ok {
			s.nextID++
			row = models.ExistingRecord{ID: strconv.Itoa(s.nextID), IdentityKey: id}
		}
		row.FallbackKey = r.FallbackKey()
		row.ContentHash = r.ContentHash()
		s.rows[id] = row
	}
	return nil
}

func (s *memStore) UpdateBatch(_ context.Context, updates []models.PlannedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failUpdate == s.updateCalls {
		return errors.New("deadlock detected")
	}
	for _, u := range updates {
		for key, row := range s.rows {
			if row.ID == u.ExistingID {
				row.FallbackKey = u.Record.FallbackKey()
				row.ContentHash = u.Record.ContentHash()
				s.rows[key] = row
			}
		}
	}
	return nil
}

func candidates(n int, title string) []models.CandidateRecord {
	out := make([]models.CandidateRecord, n)
	for i := range out {
		out[i] = models.CandidateRecord{
			Source:       "hh",
			ExternalID:   strconv.Itoa(i + 1),
			Title:        title,
			URL:          fmt.Sprintf("https://hh.ru/vacancy/%d", i+1),
			EmployerName: "Acme",
		}
	}
	return out
}

func newTestReconciler(store *memStore, chunk, batch int) *Reconciler {
	return NewReconciler(store, &configs.ReconcilerConfig{
		Backend:            configs.StoreBackendPostgres,
		ExistenceChunkSize: chunk,
		WriteBatchSize:     batch,
	}, logging.NewNop())
}

func TestReconcileEmptyStoreInsertsAll(t *testing.T) {
	store := newMemStore("empty")
	r := newTestReconciler(store, 1000, 500)

	plan, err := r.Reconcile(context.Background(), candidates(3, "Go developer"))
	require.NoError(t, err)
	assert.Len(t, plan.ToInsert, 3)
	assert.Empty(t, plan.ToUpdate)
}

func TestSecondPassProducesOnlyUpdates(t *testing.T) {
	store := newMemStore("second-pass")
	r := newTestReconciler(store, 1000, 500)
	ctx := context.Background()

	res, err := r.Sync(ctx, candidates(3, "Go developer"))
	require.NoError(t, err)
	assert.Equal(t, models.ApplyResult{Inserted: 3}, res)

	plan, err := r.Reconcile(ctx, candidates(3, "Go developer"))
	require.NoError(t, err)
	assert.Empty(t, plan.ToInsert)
	require.Len(t, plan.ToUpdate, 3)
	for _, u := range plan.ToUpdate {
		assert.NotEmpty(t, u.ExistingID)
		assert.False(t, u.Changed)
	}
}

func TestUnchangedRecordsAreNotWritten(t *testing.T) {
	store := newMemStore("unchanged")
	r := newTestReconciler(store, 1000, 500)
	ctx := context.Background()

	_, err := r.Sync(ctx, candidates(4, "Go developer"))
	require.NoError(t, err)

	batch := candidates(4, "Go developer")
	batch[1].Title = "Senior Go developer"
	res, err := r.Sync(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, models.ApplyResult{Updated: 1, Unchanged: 3}, res)
	assert.Equal(t, 1, store.updateCalls)
}

func TestExistenceCheckIsBatched(t *testing.T) {
	ctx := context.Background()

	store := newMemStore("chunks-1000")
	_, err := newTestReconciler(store, 1000, 500).Reconcile(ctx, candidates(500, "x"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.existCalls)

	store = newMemStore("chunks-100")
	_, err = newTestReconciler(store, 100, 500).Reconcile(ctx, candidates(250, "x"))
	require.NoError(t, err)
	assert.Equal(t, 3, store.existCalls)
}

func TestEveryCandidateLandsInExactlyOneList(t *testing.T) {
	store := newMemStore("partition")
	r := newTestReconciler(store, 7, 3)
	ctx := context.Background()

	_, err := r.Sync(ctx, candidates(10, "Go developer"))
	require.NoError(t, err)

	plan, err := r.Reconcile(ctx, candidates(25, "Go developer"))
	require.NoError(t, err)
	assert.Len(t, plan.ToUpdate, 10)
	assert.Len(t, plan.ToInsert, 15)
	assert.Equal(t, 25, plan.Size())
}

func TestInsertBatchFailureReportsProgress(t *testing.T) {
	store := newMemStore("insert-fail")
	store.failUpsert = 3
	r := newTestReconciler(store, 1000, 10)

	res, err := r.Sync(context.Background(), candidates(45, "Go developer"))
	require.Error(t, err)

	var re *models.ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, models.StageInsert, re.Stage)
	assert.Equal(t, 20, re.Succeeded)
	assert.Len(t, re.Remaining, 25)
	assert.Equal(t, "21", re.Remaining[0].ExternalID)
	assert.Equal(t, 20, res.Inserted)
	assert.Len(t, store.rows, 20)

	// остаток можно отправить повторно
	store.failUpsert = 0
	res, err = r.Sync(context.Background(), re.Remaining)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Inserted)
	assert.Len(t, store.rows, 45)
}

func TestUpdateBatchFailureReportsProgress(t *testing.T) {
	store := newMemStore("update-fail")
	r := newTestReconciler(store, 1000, 2)
	ctx := context.Background()

	_, err := r.Sync(ctx, candidates(5, "old"))
	require.NoError(t, err)

	store.failUpdate = 2
	_, err = r.Sync(ctx, candidates(5, "new"))

	var re *models.ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, models.StageUpdate, re.Stage)
	assert.Equal(t, 2, re.Succeeded)
	assert.Len(t, re.Remaining, 3)
}

func TestConcurrentSyncOnSameTargetIsSerialized(t *testing.T) {
	store := newMemStore("serialized")
	r1 := newTestReconciler(store, 10, 10)
	r2 := newTestReconciler(store, 10, 10)

	var wg sync.WaitGroup
	for _, r := range []*Reconciler{r1, r2, r1, r2} {
		wg.Add(1)
		go func(r *Reconciler) {
			defer wg.Done()
			_, err := r.Sync(context.Background(), candidates(30, "Go developer"))
			assert.NoError(t, err)
		}(r)
	}
	wg.Wait()

	assert.Equal(t, 1, store.maxInFlight)
	assert.Len(t, store.rows, 30)
	// вставка выполнена ровно одним проходом, остальные увидели записи как существующие
	assert.Equal(t, 3, store.upsertCalls)
}

func TestSyncWithoutStore(t *testing.T) {
	r := NewReconciler(nil, nil, logging.NewNop())
	_, err := r.Sync(context.Background(), candidates(1, "Go developer"))
	assert.ErrorIs(t, err, models.ErrStoreNotConfigured)
}

func TestMergedVacancyIsFoundByFallbackKeyOnNextRun(t *testing.T) {
	store := newMemStore("fallback-lookup")
	r := newTestReconciler(store, 1000, 500)
	ctx := context.Background()

	from := 150000
	hh := models.CandidateRecord{
		Source: "hh", ExternalID: "42", Title: "Go developer",
		URL: "https://example.com/jobs/go", EmployerName: "Acme",
	}
	sj := hh
	sj.Source, sj.ExternalID = "superjob", "7"
	sj.Salary = &models.SalaryRange{From: &from, Currency: "RUR"}

	// группа дублей сохраняется под ключом победителя с зарплатой
	_, err := r.Sync(ctx, []models.CandidateRecord{sj})
	require.NoError(t, err)
	require.Contains(t, store.rows, models.IdentityKey("superjob:7"))

	// следующий прогон только по hh находит ту же вакансию по составному ключу
	plan, err := r.Reconcile(ctx, []models.CandidateRecord{hh})
	require.NoError(t, err)
	assert.Empty(t, plan.ToInsert)
	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, store.rows["superjob:7"].ID, plan.ToUpdate[0].ExistingID)

	_, err = r.Apply(ctx, plan)
	require.NoError(t, err)
	assert.Len(t, store.rows, 1)
}

func TestIdentityMatchWinsOverFallbackMatch(t *testing.T) {
	set := make(models.ExistingSet)
	noID := models.CandidateRecord{Title: "Go developer", URL: "https://example.com/a", EmployerName: "Acme"}
	fb := noID.FallbackKey()

	set.Add(models.ExistingRecord{ID: "1", IdentityKey: "hh:1", FallbackKey: fb})
	set.Add(models.ExistingRecord{ID: "2", IdentityKey: fb, FallbackKey: fb})
	set.Add(models.ExistingRecord{ID: "3", IdentityKey: "hh:3", FallbackKey: fb})

	got, ok := set.Lookup(noID)
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)
}

func TestInsertedCountsDistinctIdentities(t *testing.T) {
	store := newMemStore("distinct")
	r := newTestReconciler(store, 1000, 500)

	batch := candidates(3, "Go developer")
	batch = append(batch, batch[0])
	res, err := r.Sync(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Len(t, store.rows, 3)
}
