package models

import "time"

// SalaryRange - вилка зарплаты. Отсутствующая граница хранится как nil
type SalaryRange struct {
	From     *int   `json:"from,omitempty"`
	To       *int   `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// NewSalaryRange собирает вилку из сырых значений провайдера.
// Ноль и отрицательные значения означают "не указано"; если обе границы не указаны, возвращается nil
func NewSalaryRange(from, to int, currency string) *SalaryRange {
	if from <= 0 && to <= 0 {
		return nil
	}
	sr := &SalaryRange{Currency: currency}
	if from > 0 {
		f := from
		sr.From = &f
	}
	if to > 0 {
		t := to
		sr.To = &t
	}
	return sr
}

// Equal сравнивает две вилки по значению, nil равен только nil
func (s *SalaryRange) Equal(o *SalaryRange) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return intPtrEqual(s.From, o.From) && intPtrEqual(s.To, o.To) && s.Currency == o.Currency
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CandidateRecord - нормализованная вакансия от одного провайдера
type CandidateRecord struct {
	ExternalID   string       `json:"external_id,omitempty"`
	Source       string       `json:"source"` // "hh", "superjob", ...
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	Salary       *SalaryRange `json:"salary,omitempty"`
	EmployerName string       `json:"employer_name"`
	Description  string       `json:"description,omitempty"`
	PostedAt     time.Time    `json:"posted_at"`
}

func (c CandidateRecord) HasSalary() bool {
	return c.Salary != nil
}

// MatchesSalaryFilter проверяет запись на соответствие фильтрам зарплаты запроса.
// Записи без вилки проходят, если запрос не требует наличия зарплаты
func (c CandidateRecord) MatchesSalaryFilter(q Query) bool {
	if c.Salary == nil {
		return !q.OnlyWithSalary
	}
	if q.SalaryFrom > 0 {
		upper := c.Salary.To
		if upper == nil {
			upper = c.Salary.From
		}
		if upper != nil && *upper < q.SalaryFrom {
			return false
		}
	}
	if q.SalaryTo > 0 && c.Salary.From != nil && *c.Salary.From > q.SalaryTo {
		return false
	}
	return true
}
