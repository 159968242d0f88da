package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/internal/parsers_status_manager"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParser struct {
	name    string
	records []models.CandidateRecord
	err     error
	block   bool
}

func (p *fakeParser) GetName() string { return p.name }

func (p *fakeParser) SearchVacancies(ctx context.Context, q models.Query) ([]models.CandidateRecord, error) {
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.records, p.err
}

// directFetcher вызывает парсер напрямую и запоминает запросы
type directFetcher struct {
	mu      sync.Mutex
	queries []models.Query
}

func (f *directFetcher) Fetch(ctx context.Context, p sync_interfaces.Parser, q models.Query) ([]models.CandidateRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return p.SearchVacancies(ctx, q)
}

func newTestAggregator(cfg *configs.AggregatorConfig, parsers ...sync_interfaces.Parser) (*Aggregator, *parsers_status_manager.ParserStatusManager, *directFetcher) {
	psm := parsers_status_manager.NewParserStatusManager(parsers...)
	f := &directFetcher{}
	return NewAggregator(parsers, f, psm, cfg, logging.NewNop()), psm, f
}

func TestSearchMergesAndDeduplicates(t *testing.T) {
	hh := &fakeParser{name: "hh", records: []models.CandidateRecord{
		rec("hh", "42", "Go Engineer", "Acme", "https://hh.ru/vacancy/42", nil),
		rec("hh", "43", "Python", "Acme", "https://hh.ru/vacancy/43", nil),
	}}
	sj := &fakeParser{name: "superjob", records: []models.CandidateRecord{
		rec("superjob", "", "Go Engineer", "Acme", "https://hh.ru/vacancy/42", models.NewSalaryRange(200, 300, "rub")),
		rec("superjob", "9", "Rust", "Beta", "https://superjob.ru/9", nil),
	}}
	agg, _, fetcher := newTestAggregator(nil, hh, sj)

	res, err := agg.Search(context.Background(), nil, models.Query{Text: "  Go "})
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.DuplicatesSkipped)
	assert.Empty(t, res.ProviderErrors)
	assert.Equal(t, "42", res.Records[0].ExternalID)
	assert.NotNil(t, res.Records[0].Salary)
	assert.Len(t, res.Stats, 2)

	for _, q := range fetcher.queries {
		assert.Equal(t, "go", q.Text, "провайдеры получают нормализованный запрос")
	}
}

func TestSearchPartialFailure(t *testing.T) {
	ok := &fakeParser{name: "hh", records: []models.CandidateRecord{rec("hh", "1", "Go", "A", "https://a/1", nil)}}
	failing := &fakeParser{name: "superjob", err: models.NewHTTPStatusError("superjob", 500, errors.New("boom"))}
	agg, psm, _ := newTestAggregator(nil, ok, failing)

	res, err := agg.Search(context.Background(), nil, models.Query{Text: "go"})
	require.NoError(t, err, "ошибка одного провайдера не ломает поиск")

	assert.Len(t, res.Records, 1)
	require.Len(t, res.ProviderErrors, 1)
	assert.Equal(t, "superjob", res.ProviderErrors[0].Source)
	assert.Equal(t, models.ProviderErrHTTPStatus, res.ProviderErrors[0].Kind)

	status, _ := psm.GetParserStatus("superjob")
	assert.False(t, status.IsHealthy)
	status, _ = psm.GetParserStatus("hh")
	assert.True(t, status.IsHealthy)
}

func TestSearchProviderTimeoutDoesNotBlockOthers(t *testing.T) {
	fast := &fakeParser{name: "hh", records: []models.CandidateRecord{rec("hh", "1", "Go", "A", "https://a/1", nil)}}
	slow := &fakeParser{name: "superjob", block: true}
	cfg := &configs.AggregatorConfig{SearchTimeout: time.Second, ProviderTimeout: 50 * time.Millisecond}
	agg, _, _ := newTestAggregator(cfg, fast, slow)

	start := time.Now()
	res, err := agg.Search(context.Background(), nil, models.Query{Text: "go"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Len(t, res.Records, 1)
	require.Len(t, res.ProviderErrors, 1)
	assert.Equal(t, models.ProviderErrTimeout, res.ProviderErrors[0].Kind)
}

func TestSearchSelectsProviders(t *testing.T) {
	hh := &fakeParser{name: "hh", records: []models.CandidateRecord{rec("hh", "1", "Go", "A", "https://a/1", nil)}}
	sj := &fakeParser{name: "superjob", records: []models.CandidateRecord{rec("superjob", "2", "Go", "B", "https://b/2", nil)}}
	agg, _, _ := newTestAggregator(nil, hh, sj)

	res, err := agg.Search(context.Background(), []string{"superjob", "superjob"}, models.Query{Text: "go"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "superjob", res.Records[0].Source)

	_, err = agg.Search(context.Background(), []string{"rabota"}, models.Query{Text: "go"})
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
}

func TestSearchValidation(t *testing.T) {
	agg, _, _ := newTestAggregator(nil)

	_, err := agg.Search(context.Background(), nil, models.Query{Text: " "})
	assert.ErrorIs(t, err, models.ErrEmptyQuery)

	_, err = agg.Search(context.Background(), nil, models.Query{Text: "go"})
	assert.ErrorIs(t, err, models.ErrNoProviders)
}

func TestSearchAppliesSalaryFilter(t *testing.T) {
	hh := &fakeParser{name: "hh", records: []models.CandidateRecord{
		rec("hh", "1", "Go", "A", "https://a/1", nil),
		rec("hh", "2", "Go", "B", "https://a/2", models.NewSalaryRange(100, 200, "RUR")),
	}}
	agg, _, _ := newTestAggregator(nil, hh)

	res, err := agg.Search(context.Background(), nil, models.Query{Text: "go", OnlyWithSalary: true})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2", res.Records[0].ExternalID)
}

func TestSearchRecoversProviderPanic(t *testing.T) {
	agg, _, _ := newTestAggregator(nil, &panicParser{})

	res, err := agg.Search(context.Background(), nil, models.Query{Text: "go"})
	require.NoError(t, err)
	require.Len(t, res.ProviderErrors, 1)
	assert.Equal(t, "panicky", res.ProviderErrors[0].Source)
}

type panicParser struct{}

func (p *panicParser) GetName() string { return "panicky" }

func (p *panicParser) SearchVacancies(context.Context, models.Query) ([]models.CandidateRecord, error) {
	panic("unexpected nil map")
}
