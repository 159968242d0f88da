package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
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

// создаём стркутуру парсера для SuperJob.ru на базе общего парсера
type SJParser struct {
	*BaseParser
}

// конструктор для парсера SuperJob.ru
func NewSJParser(cfg *configs.ParserInstanceConfig, logger *logging.Logger) (sync_interfaces.Parser, error) {
	if cfg == nil {
		cfg = configs.DefaultParsersConfig().SuperJob
	}

	baseParser, err := NewBaseParser(baseConfigFrom(string(ParserTypeSJ), cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("init parser %s: %w", ParserTypeSJ, err)
	}

	return &SJParser{BaseParser: baseParser}, nil
}

// метод парсера для поиска списка вакансий
func (p *SJParser) SearchVacancies(ctx context.Context, query models.Query) ([]models.CandidateRecord, error) {
	return p.BaseParser.SearchVacancies(ctx, query, ParserFuncs{
		BuildURL:    p.buildURL,
		SetHeaders:  p.setHeaders,
		SplitPage:   p.splitPage,
		ConvertItem: p.convertItem,
	})
}

// SuperJob авторизует приложение по секретному ключу в заголовке
func (p *SJParser) setHeaders(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("X-Api-App-Id", p.apiKey)
	}
}

// buildURL строит URL для API запроса для поиска списка вакансий
func (p *SJParser) buildURL(q models.Query) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("keyword", q.Text)
	params.Set("count", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(q.Page)) // SuperJob использует 0-based страницы, как и Query
	if q.Area != "" {
		params.Set("town", q.Area)
	}
	if q.SalaryFrom > 0 {
		params.Set("payment_from", strconv.Itoa(q.SalaryFrom))
	}
	if q.SalaryTo > 0 {
		params.Set("payment_to", strconv.Itoa(q.SalaryTo))
	}
	if q.OnlyWithSalary {
		params.Set("no_agreement", "1")
	}
	// в SuperJob работодатель задаётся идентификатором клиента
	for _, id := range q.EmployerIDs {
		params.Add("id_client", id)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (p *SJParser) splitPage(body []byte) (PageItems, error) {
	var resp model.SuperJobResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return PageItems{}, fmt.Errorf("parse response body failed: %w", err)
	}
	return PageItems{Items: resp.Objects, HasMore: resp.More}, nil
}

// convertItem приводит вакансию SuperJob к общему формату
func (p *SJParser) convertItem(raw json.RawMessage) (models.CandidateRecord, error) {
	var v model.SJVacancy
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.CandidateRecord{}, fmt.Errorf("decode item: %w", err)
	}
	if strings.TrimSpace(v.Profession) == "" || strings.TrimSpace(v.Link) == "" {
		return models.CandidateRecord{}, errors.New("missing required field profession or link")
	}

	rec := models.CandidateRecord{
		Source:       string(ParserTypeSJ),
		Title:        strings.TrimSpace(v.Profession),
		URL:          v.Link,
		EmployerName: strings.TrimSpace(v.FirmName),
		Salary:       models.NewSalaryRange(v.PaymentFrom, v.PaymentTo, v.Currency),
	}
	if v.ID > 0 {
		rec.ExternalID = strconv.Itoa(v.ID)
	}

	description := v.VacancyRichText
	if description == "" {
		description = v.Candidat
	}
	rec.Description = htmlToText(description)

	if v.DatePublished > 0 {
		rec.PostedAt = time.Unix(v.DatePublished, 0).UTC()
	}
	return rec, nil
}
