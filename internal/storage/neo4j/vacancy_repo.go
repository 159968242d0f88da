// Хранилище вакансий в графе Neo4j: узлы Vacancy и Employer, связь POSTED_BY
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	neo4jclient "sync_service/shared/neo4j_client"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var _ sync_interfaces.VacancyStore = (*VacancyRepository)(nil)

const constraintQuery = `
	CREATE CONSTRAINT vacancy_identity_key IF NOT EXISTS
	FOR (v:Vacancy) REQUIRE v.identityKey IS UNIQUE
`

const fallbackIndexQuery = `
	CREATE INDEX vacancy_fallback_key IF NOT EXISTS
	FOR (v:Vacancy) ON (v.fallbackKey)
`

const existingQuery = `
	MATCH (v:Vacancy)
	WHERE v.identityKey IN $keys OR v.fallbackKey IN $keys
	RETURN v.id AS id, v.identityKey AS identityKey, v.fallbackKey AS fallbackKey, v.contentHash AS contentHash
`

// MERGE по identityKey делает повторную вставку безопасной
const upsertQuery = `
	UNWIND $rows AS row
	MERGE (v:Vacancy {identityKey: row.identityKey})
	ON CREATE SET v.id = row.id, v.createdAt = datetime()
	SET v += row.props, v.updatedAt = datetime()
	WITH v, row
	OPTIONAL MATCH (v)-[old:POSTED_BY]->(:Employer)
	DELETE old
	WITH v, row
	WHERE row.employer <> ''
	MERGE (e:Employer {name: row.employer})
	MERGE (v)-[:POSTED_BY]->(e)
`

const updateQuery = `
	UNWIND $rows AS row
	MATCH (v:Vacancy {id: row.id})
	SET v += row.props, v.updatedAt = datetime()
	WITH v, row
	OPTIONAL MATCH (v)-[old:POSTED_BY]->(:Employer)
	DELETE old
	WITH v, row
	WHERE row.employer <> ''
	MERGE (e:Employer {name: row.employer})
	MERGE (v)-[:POSTED_BY]->(e)
`

type VacancyRepository struct {
	client *neo4jclient.Client
	newID  func() string
}

func NewVacancyRepository(client *neo4jclient.Client) (*VacancyRepository, error) {
	if client == nil {
		return nil, errors.New("neo4j client is nil")
	}
	return &VacancyRepository{
		client: client,
		newID:  func() string { return uuid.NewString() },
	}, nil
}

func (r *VacancyRepository) Target() string {
	return "neo4j:Vacancy"
}

// EnsureSchema создаёт ограничение уникальности identityKey и индекс по fallbackKey
func (r *VacancyRepository) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{constraintQuery, fallbackIndexQuery} {
		if err := r.write(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (r *VacancyRepository) ExistingByKeys(ctx context.Context, keys []models.IdentityKey) (models.ExistingSet, error) {
	out := make(models.ExistingSet, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = string(k)
	}

	session := r.client.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, existingQuery, map[string]any{"keys": raw})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query existing vacancies: %w", err)
	}

	for _, record := range result.([]*neo4j.Record) {
		key, _, err := neo4j.GetRecordValue[string](record, "identityKey")
		if err != nil {
			return nil, fmt.Errorf("bad identityKey in record: %w", err)
		}
		id, _, _ := neo4j.GetRecordValue[string](record, "id")
		fallback, _, _ := neo4j.GetRecordValue[string](record, "fallbackKey")
		hash, _, _ := neo4j.GetRecordValue[string](record, "contentHash")
		out.Add(models.ExistingRecord{
			ID:          id,
			IdentityKey: models.IdentityKey(key),
			FallbackKey: models.IdentityKey(fallback),
			ContentHash: hash,
		})
	}
	return out, nil
}

// UpsertBatch - одна управляемая транзакция на пачку
func (r *VacancyRepository) UpsertBatch(ctx context.Context, records []models.CandidateRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = r.rowParams(r.newID(), rec)
	}
	if err := r.write(ctx, upsertQuery, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("failed to upsert vacancies: %w", err)
	}
	return nil
}

func (r *VacancyRepository) UpdateBatch(ctx context.Context, updates []models.PlannedUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(updates))
	for i, u := range updates {
		rows[i] = r.rowParams(u.ExistingID, u.Record)
	}
	if err := r.write(ctx, updateQuery, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("failed to update vacancies: %w", err)
	}
	return nil
}

func (r *VacancyRepository) write(ctx context.Context, query string, params map[string]any) error {
	session := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// rowParams раскладывает запись в параметры запроса. Отсутствующие зарплата и дата передаются как nil:
// SET v += props удаляет свойства со значением null, и старая зарплата не остаётся в узле
func (r *VacancyRepository) rowParams(id string, rec models.CandidateRecord) map[string]any {
	props := map[string]any{
		"fallbackKey":    string(rec.FallbackKey()),
		"source":         rec.Source,
		"externalId":     rec.ExternalID,
		"title":          rec.Title,
		"url":            rec.URL,
		"description":    rec.Description,
		"contentHash":    rec.ContentHash(),
		"salaryFrom":     nil,
		"salaryTo":       nil,
		"salaryCurrency": nil,
		"postedAt":       nil,
	}
	if rec.Salary != nil {
		if rec.Salary.From != nil {
			props["salaryFrom"] = int64(*rec.Salary.From)
		}
		if rec.Salary.To != nil {
			props["salaryTo"] = int64(*rec.Salary.To)
		}
		props["salaryCurrency"] = rec.Salary.Currency
	}
	if !rec.PostedAt.IsZero() {
		props["postedAt"] = rec.PostedAt.UTC()
	}
	return map[string]any{
		"id":          id,
		"identityKey": string(rec.Identity()),
		"employer":    rec.EmployerName,
		"props":       props,
	}
}
