package models

import (
	"sort"
	"strings"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Query - поисковый запрос: текст и необязательные фильтры.
// После создания не изменяется, Normalize возвращает новую копию
type Query struct {
	Text           string `json:"text"`
	Area           string `json:"area,omitempty"`
	SalaryFrom     int    `json:"salary_from,omitempty"`
	SalaryTo       int    `json:"salary_to,omitempty"`
	OnlyWithSalary bool   `json:"only_with_salary,omitempty"`
	Page           int    `json:"page"`
	PerPage        int    `json:"per_page"`
	// идентификаторы работодателей у провайдера; пустой список - без фильтра
	EmployerIDs []string `json:"employer_ids,omitempty"`
}

// Normalize приводит запрос к каноничному виду, который используется в ключе кэша:
// текст в нижнем регистре без лишних пробелов, страница и размер страницы в допустимых границах
func (q Query) Normalize() Query {
	out := q
	out.Text = NormalizeText(q.Text)
	out.Area = strings.ToLower(strings.TrimSpace(q.Area))
	if out.SalaryFrom < 0 {
		out.SalaryFrom = 0
	}
	if out.SalaryTo < 0 {
		out.SalaryTo = 0
	}
	if out.Page < 0 {
		out.Page = 0
	}
	if out.PerPage <= 0 {
		out.PerPage = DefaultPerPage
	}
	if out.PerPage > MaxPerPage {
		out.PerPage = MaxPerPage
	}
	out.EmployerIDs = normalizeIDs(q.EmployerIDs)
	return out
}

// normalizeIDs: без пробелов, пустых и повторов, по возрастанию.
// Порядок фильтра не меняет выдачу, поэтому не должен менять и ключ кэша
func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Validate проверяет, что по запросу вообще можно искать
func (q Query) Validate() error {
	if NormalizeText(q.Text) == "" {
		return ErrEmptyQuery
	}
	if q.SalaryFrom > 0 && q.SalaryTo > 0 && q.SalaryFrom > q.SalaryTo {
		return ErrInvalidSalaryBounds
	}
	return nil
}

// NormalizeText: trim, нижний регистр, схлопывание пробельных символов
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
