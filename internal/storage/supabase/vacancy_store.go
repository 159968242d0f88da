// Хранилище вакансий в Supabase (PostgREST) через nedpals/supabase-go
package supabase

import (
	"context"
	"errors"
	"fmt"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/config"
	"time"

	supa "github.com/nedpals/supabase-go"
)

var _ sync_interfaces.VacancyStore = (*VacancyStore)(nil)

// строка таблицы; identity_key - первичный ключ, upsert сливает дубликаты по нему
type vacancyRow struct {
	IdentityKey    string     `json:"identity_key"`
	FallbackKey    string     `json:"fallback_key"`
	Source         string     `json:"source"`
	ExternalID     string     `json:"external_id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	EmployerName   string     `json:"employer_name"`
	Description    string     `json:"description"`
	SalaryFrom     *int       `json:"salary_from"`
	SalaryTo       *int       `json:"salary_to"`
	SalaryCurrency string     `json:"salary_currency"`
	PostedAt       *time.Time `json:"posted_at"`
	ContentHash    string     `json:"content_hash"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type existingRow struct {
	IdentityKey string `json:"identity_key"`
	FallbackKey string `json:"fallback_key"`
	ContentHash string `json:"content_hash"`
}

// колонки, по которым ищется существующая запись; на fallback_key нужен индекс
var lookupColumns = []string{"identity_key", "fallback_key"}

type VacancyStore struct {
	client *supa.Client
	table  string
	now    func() time.Time
}

func NewVacancyStore(cfg *config.SupabaseConfig) (*VacancyStore, error) {
	if cfg == nil {
		return nil, errors.New("supabase config is nil")
	}
	if cfg.URL == "" || cfg.Key == "" {
		return nil, errors.New("supabase URL and key must be provided")
	}
	table := cfg.Table
	if table == "" {
		table = "vacancies"
	}
	return &VacancyStore{
		client: supa.CreateClient(cfg.URL, cfg.Key),
		table:  table,
		now:    time.Now,
	}, nil
}

func (s *VacancyStore) Target() string {
	return "supabase:" + s.table
}

// ExistingByKeys - по одному запросу с фильтром col=in.(...) на колонку ключа.
// Собственным идентификатором записи в Supabase служит её identity_key
func (s *VacancyStore) ExistingByKeys(ctx context.Context, keys []models.IdentityKey) (models.ExistingSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(models.ExistingSet, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = string(k)
	}

	for _, column := range lookupColumns {
		var rows []existingRow
		err := s.client.DB.From(s.table).
			Select("identity_key", "fallback_key", "content_hash").
			In(column, raw).
			Execute(&rows)
		if err != nil {
			return nil, fmt.Errorf("failed to query existing vacancies by %s: %w", column, err)
		}
		for _, r := range rows {
			out.Add(models.ExistingRecord{
				ID:          r.IdentityKey,
				IdentityKey: models.IdentityKey(r.IdentityKey),
				FallbackKey: models.IdentityKey(r.FallbackKey),
				ContentHash: r.ContentHash,
			})
		}
	}
	return out, nil
}

// UpsertBatch - один POST со всей пачкой, PostgREST выполняет его в одной транзакции
func (s *VacancyStore) UpsertBatch(ctx context.Context, records []models.CandidateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	rows := make([]vacancyRow, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		row := s.toRow(rec)
		if i, ok := seen[row.IdentityKey]; ok {
			rows[i] = row
			continue
		}
		seen[row.IdentityKey] = len(rows)
		rows = append(rows, row)
	}
	return s.upsert(rows)
}

func (s *VacancyStore) UpdateBatch(ctx context.Context, updates []models.PlannedUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	rows := make([]vacancyRow, len(updates))
	for i, u := range updates {
		rows[i] = s.toRow(u.Record)
		rows[i].IdentityKey = u.ExistingID
	}
	return s.upsert(rows)
}

func (s *VacancyStore) upsert(rows []vacancyRow) error {
	var result []existingRow
	if err := s.client.DB.From(s.table).Upsert(rows).Execute(&result); err != nil {
		return fmt.Errorf("failed to upsert %d vacancies: %w", len(rows), err)
	}
	return nil
}

func (s *VacancyStore) toRow(rec models.CandidateRecord) vacancyRow {
	row := vacancyRow{
		IdentityKey:  string(rec.Identity()),
		FallbackKey:  string(rec.FallbackKey()),
		Source:       rec.Source,
		ExternalID:   rec.ExternalID,
		Title:        rec.Title,
		URL:          rec.URL,
		EmployerName: rec.EmployerName,
		Description:  rec.Description,
		ContentHash:  rec.ContentHash(),
		UpdatedAt:    s.now().UTC(),
	}
	if rec.Salary != nil {
		row.SalaryFrom = rec.Salary.From
		row.SalaryTo = rec.Salary.To
		row.SalaryCurrency = rec.Salary.Currency
	}
	if !rec.PostedAt.IsZero() {
		t := rec.PostedAt
		row.PostedAt = &t
	}
	return row
}
