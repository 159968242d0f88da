// Хранилище вакансий в PostgreSQL поверх интерфейсов shared/db
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/db"
	"time"
)

var _ sync_interfaces.VacancyStore = (*VacancyRepository)(nil)

const DefaultTable = "vacancies"

// количество параметров на одну строку вставки и обновления
const insertColumns = 13

// MaxBatchRows - предел строк в одной команде: у PostgreSQL не больше 65535 параметров на запрос
const MaxBatchRows = 65535 / insertColumns

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id              BIGSERIAL PRIMARY KEY,
    identity_key    TEXT NOT NULL UNIQUE,
    fallback_key    TEXT NOT NULL DEFAULT '',
    source          TEXT NOT NULL,
    external_id     TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL,
    url             TEXT NOT NULL,
    employer_name   TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    salary_from     INTEGER,
    salary_to       INTEGER,
    salary_currency TEXT NOT NULL DEFAULT '',
    posted_at       TIMESTAMPTZ,
    content_hash    TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// таблицы, созданные до появления составного ключа, дополняются колонкой и индексом
var migrationTemplates = []string{
	`ALTER TABLE %[1]s ADD COLUMN IF NOT EXISTS fallback_key TEXT NOT NULL DEFAULT ''`,
	`CREATE INDEX IF NOT EXISTS %[2]s_fallback_key_idx ON %[1]s (fallback_key)`,
}

type VacancyRepository struct {
	pool  db.Pool
	table string
}

func NewVacancyRepository(pool db.Pool, table string) (*VacancyRepository, error) {
	if pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &VacancyRepository{pool: pool, table: table}, nil
}

func (r *VacancyRepository) Target() string {
	return "postgres:" + r.table
}

// EnsureSchema создаёт таблицу вакансий и индекс по составному ключу, если их ещё нет
func (r *VacancyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(schemaTemplate, r.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	indexPrefix := strings.ReplaceAll(r.table, ".", "_")
	for _, tmpl := range migrationTemplates {
		if _, err := r.pool.Exec(ctx, fmt.Sprintf(tmpl, r.table, indexPrefix)); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", r.table, err)
		}
	}
	return nil
}

// ExistingByKeys - один запрос на чанк, совпадение по identity_key или fallback_key
func (r *VacancyRepository) ExistingByKeys(ctx context.Context, keys []models.IdentityKey) (models.ExistingSet, error) {
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

	query := fmt.Sprintf(`SELECT id::text, identity_key, fallback_key, content_hash FROM %s
WHERE identity_key = ANY($1) OR fallback_key = ANY($1)`, r.table)
	rows, err := r.pool.Query(ctx, query, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing vacancies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key, fallback, hash string
		if err := rows.Scan(&id, &key, &fallback, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan existing vacancy: %w", err)
		}
		out.Add(models.ExistingRecord{
			ID:          id,
			IdentityKey: models.IdentityKey(key),
			FallbackKey: models.IdentityKey(fallback),
			ContentHash: hash,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing vacancies: %w", err)
	}
	return out, nil
}

// UpsertBatch вставляет пачку одним запросом в транзакции.
// Конфликт по identity_key превращается в обновление, повтор той же пачки безопасен
func (r *VacancyRepository) UpsertBatch(ctx context.Context, records []models.CandidateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	records = lastPerKey(records)
	if len(records) == 0 {
		return nil
	}

	if len(records) > MaxBatchRows {
		return fmt.Errorf("batch of %d rows exceeds the limit of %d", len(records), MaxBatchRows)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `INSERT INTO %s (identity_key, fallback_key, source, external_id, title, url, employer_name, description,
salary_from, salary_to, salary_currency, posted_at, content_hash) VALUES `, r.table)

	args := make([]any, 0, len(records)*insertColumns)
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*insertColumns, insertColumns)
		args = append(args, rowArgs(rec)...)
	}
	sb.WriteString(` ON CONFLICT (identity_key) DO UPDATE SET
fallback_key = EXCLUDED.fallback_key, source = EXCLUDED.source, external_id = EXCLUDED.external_id, title = EXCLUDED.title, url = EXCLUDED.url,
employer_name = EXCLUDED.employer_name, description = EXCLUDED.description,
salary_from = EXCLUDED.salary_from, salary_to = EXCLUDED.salary_to, salary_currency = EXCLUDED.salary_currency,
posted_at = EXCLUDED.posted_at, content_hash = EXCLUDED.content_hash, updated_at = now()`)

	return r.inTx(ctx, func(tx db.Tx) error {
		if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to insert vacancies: %w", err)
		}
		return nil
	})
}

// UpdateBatch обновляет пачку по собственным id хранилища одним запросом в транзакции.
// identity_key строки не меняется: запись, найденная по составному ключу, остаётся под прежним ключом
func (r *VacancyRepository) UpdateBatch(ctx context.Context, updates []models.PlannedUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	if len(updates) > MaxBatchRows {
		return fmt.Errorf("batch of %d rows exceeds the limit of %d", len(updates), MaxBatchRows)
	}

	const cols = insertColumns
	var sb strings.Builder
	fmt.Fprintf(&sb, `UPDATE %s AS v SET
fallback_key = u.fallback_key, source = u.source, external_id = u.external_id, title = u.title, url = u.url,
employer_name = u.employer_name, description = u.description,
salary_from = u.salary_from, salary_to = u.salary_to, salary_currency = u.salary_currency,
content_hash = u.content_hash, posted_at = u.posted_at, updated_at = now()
FROM (VALUES `, r.table)

	args := make([]any, 0, len(updates)*cols)
	for i, u := range updates {
		id, err := strconv.ParseInt(u.ExistingID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid vacancy id %q: %w", u.ExistingID, err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * cols
		fmt.Fprintf(&sb, "($%d::bigint, $%d::text, $%d::text, $%d::text, $%d::text, $%d::text, $%d::text, $%d::text, $%d::integer, $%d::integer, $%d::text, $%d::timestamptz, $%d::text)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9, n+10, n+11, n+12, n+13)
		rec := u.Record
		from, to, currency := salaryArgs(rec.Salary)
		args = append(args, id, string(rec.FallbackKey()), rec.Source, rec.ExternalID, rec.Title, rec.URL, rec.EmployerName,
			rec.Description, from, to, currency, postedAt(rec.PostedAt), rec.ContentHash())
	}
	sb.WriteString(`) AS u(id, fallback_key, source, external_id, title, url, employer_name, description,
salary_from, salary_to, salary_currency, posted_at, content_hash)
WHERE v.id = u.id`)

	return r.inTx(ctx, func(tx db.Tx) error {
		if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to update vacancies: %w", err)
		}
		return nil
	})
}

func (r *VacancyRepository) inTx(ctx context.Context, fn func(tx db.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func rowArgs(rec models.CandidateRecord) []any {
	from, to, currency := salaryArgs(rec.Salary)
	return []any{
		string(rec.Identity()), string(rec.FallbackKey()), rec.Source, rec.ExternalID, rec.Title, rec.URL, rec.EmployerName,
		rec.Description, from, to, currency, postedAt(rec.PostedAt), rec.ContentHash(),
	}
}

func salaryArgs(s *models.SalaryRange) (from, to *int, currency string) {
	if s == nil {
		return nil, nil, ""
	}
	return s.From, s.To, s.Currency
}

func postedAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writePlaceholders(sb *strings.Builder, offset, n int) {
	sb.WriteByte('(')
	for j := 1; j <= n; j++ {
		if j > 1 {
			sb.WriteString(", ")
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(offset + j))
	}
	sb.WriteByte(')')
}

// в одной команде INSERT ... ON CONFLICT ключ не может встречаться дважды
func lastPerKey(records []models.CandidateRecord) []models.CandidateRecord {
	idx := make(map[models.IdentityKey]int, len(records))
	out := make([]models.CandidateRecord, 0, len(records))
	for _, rec := range records {
		k := rec.Identity()
		if i, ok := idx[k]; ok {
			out[i] = rec
			continue
		}
		idx[k] = len(out)
		out = append(out, rec)
	}
	return out
}

func validIdent(s string) bool {
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		case c == '.' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
