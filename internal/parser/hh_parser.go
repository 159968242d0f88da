package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/internal/parser/model"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"time"
)

// формат даты HH: 2024-01-15T10:30:00+0300
const hhTimeLayout = "2006-01-02T15:04:05-0700"

// создаём стркутуру парсера для HH.ru на базе общего парсера
type HHParser struct {
	*BaseParser
}

// конструктор для парсера HH.ru
func NewHHParser(cfg *configs.ParserInstanceConfig, logger *logging.Logger) (sync_interfaces.Parser, error) {
	if cfg == nil {
		cfg = configs.DefaultParsersConfig().HH
	}

	baseParser, err := NewBaseParser(baseConfigFrom(string(ParserTypeHH), cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("init parser %s: %w", ParserTypeHH, err)
	}

	return &HHParser{BaseParser: baseParser}, nil
}

// метод парсера для поиска списка вакансий
func (p *HHParser) SearchVacancies(ctx context.Context, query models.Query) ([]models.CandidateRecord, error) {
	return p.BaseParser.SearchVacancies(ctx, query, ParserFuncs{
		BuildURL:    p.buildURL,
		SplitPage:   p.splitPage,
		ConvertItem: p.convertItem,
	})
}

// buildURL строит URL для API запроса для поиска списка вакансий
func (p *HHParser) buildURL(q models.Query) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("text", q.Text)
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(q.Page))
	if q.Area != "" {
		params.Set("area", q.Area)
	}
	if q.SalaryFrom > 0 {
		params.Set("salary", strconv.Itoa(q.SalaryFrom))
	}
	if q.OnlyWithSalary {
		params.Set("only_with_salary", "true")
	}
	// HH принимает employer_id несколько раз
	for _, id := range q.EmployerIDs {
		params.Add("employer_id", id)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

// splitPage: HH нумерует страницы с нуля и отдаёт их общее количество в pages
func (p *HHParser) splitPage(body []byte) (PageItems, error) {
	var resp model.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return PageItems{}, fmt.Errorf("parse response body failed: %w", err)
	}
	return PageItems{
		Items:   resp.Items,
		HasMore: resp.Found > 0 && resp.Page+1 < resp.Pages,
	}, nil
}

// convertItem приводит вакансию HH к общему формату
func (p *HHParser) convertItem(raw json.RawMessage) (models.CandidateRecord, error) {
	var v model.HHVacancy
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.CandidateRecord{}, fmt.Errorf("decode item: %w", err)
	}
	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Name) == "" || strings.TrimSpace(v.AlternateURL) == "" {
		return models.CandidateRecord{}, errors.New("missing required field id, name or alternate_url")
	}

	rec := models.CandidateRecord{
		ExternalID: v.ID,
		Source:     string(ParserTypeHH),
		Title:      strings.TrimSpace(v.Name),
		URL:        v.AlternateURL,
	}
	if v.Employer != nil {
		rec.EmployerName = strings.TrimSpace(v.Employer.Name)
	}
	if v.Salary != nil {
		rec.Salary = models.NewSalaryRange(derefInt(v.Salary.From), derefInt(v.Salary.To), v.Salary.Currency)
	}
	if v.Snippet != nil {
		rec.Description = htmlToText(joinNonEmpty("\n", v.Snippet.Requirement, v.Snippet.Responsibility))
	}
	if v.PublishedAt != "" {
		t, err := time.Parse(hhTimeLayout, v.PublishedAt)
		if err != nil {
			return models.CandidateRecord{}, fmt.Errorf("bad published_at %q: %w", v.PublishedAt, err)
		}
		rec.PostedAt = t.UTC()
	}
	return rec, nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}

// baseConfigFrom переносит конфиг из yml в конфиг базового парсера
func baseConfigFrom(name string, cfg *configs.ParserInstanceConfig) BaseConfig {
	return BaseConfig{
		Name:                  name,
		BaseURL:               cfg.BaseURL,
		APIKey:                cfg.APIKey,
		UserAgent:             cfg.UserAgent,
		Timeout:               cfg.Timeout,
		RateLimit:             cfg.RateLimit,
		MaxConcurrent:         cfg.MaxConcurrent,
		MaxPages:              cfg.MaxPages,
		CircuitBreakerCfg:     cfg.CircuitBreaker,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}
}
