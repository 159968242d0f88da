package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestQueryNormalize(t *testing.T) {
	q := Query{Text: "  Golang   Developer ", Area: " Moscow ", PerPage: 500, Page: -3, SalaryFrom: -1}
	n := q.Normalize()

	assert.Equal(t, "golang developer", n.Text)
	assert.Equal(t, "moscow", n.Area)
	assert.Equal(t, MaxPerPage, n.PerPage)
	assert.Equal(t, 0, n.Page)
	assert.Equal(t, 0, n.SalaryFrom)
	assert.Equal(t, "  Golang   Developer ", q.Text, "исходный запрос не изменяется")

	assert.Equal(t, DefaultPerPage, Query{Text: "go"}.Normalize().PerPage)
}

func TestQueryNormalizeEmployerIDs(t *testing.T) {
	ids := []string{" 3529 ", "78638", "", "3529"}
	n := Query{Text: "go", EmployerIDs: ids}.Normalize()

	assert.Equal(t, []string{"3529", "78638"}, n.EmployerIDs)
	assert.Equal(t, " 3529 ", ids[0], "исходный срез не изменяется")
	assert.Nil(t, Query{Text: "go", EmployerIDs: []string{" "}}.Normalize().EmployerIDs)
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{"ok", Query{Text: "go"}, nil},
		{"empty", Query{Text: "   "}, ErrEmptyQuery},
		{"bad salary bounds", Query{Text: "go", SalaryFrom: 200, SalaryTo: 100}, ErrInvalidSalaryBounds},
		{"only lower bound", Query{Text: "go", SalaryFrom: 200}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.query.Validate(), tt.wantErr)
		})
	}
}

func TestNewSalaryRange(t *testing.T) {
	assert.Nil(t, NewSalaryRange(0, 0, "RUR"), "нулевые границы означают отсутствие зарплаты")

	sr := NewSalaryRange(100000, 0, "RUR")
	require.NotNil(t, sr)
	assert.Equal(t, 100000, *sr.From)
	assert.Nil(t, sr.To)

	assert.True(t, NewSalaryRange(1, 2, "USD").Equal(NewSalaryRange(1, 2, "USD")))
	assert.False(t, NewSalaryRange(1, 2, "USD").Equal(NewSalaryRange(1, 3, "USD")))
	assert.False(t, NewSalaryRange(1, 2, "USD").Equal(nil))
	var none *SalaryRange
	assert.True(t, none.Equal(nil))
}

func TestMatchesSalaryFilter(t *testing.T) {
	withSalary := CandidateRecord{Salary: &SalaryRange{From: intPtr(100), To: intPtr(200)}}
	noSalary := CandidateRecord{}

	assert.True(t, noSalary.MatchesSalaryFilter(Query{}))
	assert.False(t, noSalary.MatchesSalaryFilter(Query{OnlyWithSalary: true}))
	assert.True(t, withSalary.MatchesSalaryFilter(Query{SalaryFrom: 150}))
	assert.False(t, withSalary.MatchesSalaryFilter(Query{SalaryFrom: 250}))
	assert.False(t, withSalary.MatchesSalaryFilter(Query{SalaryTo: 50}))
}

func TestIdentity(t *testing.T) {
	withID := CandidateRecord{Source: "HH", ExternalID: " 42 ", Title: "Go dev", EmployerName: "Acme", URL: "https://hh.ru/vacancy/42"}
	key, ok := withID.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, IdentityKey("hh:42"), key)
	assert.Equal(t, key, withID.Identity())

	noID := CandidateRecord{Source: "superjob", Title: "Go  Dev", EmployerName: "ACME", URL: "http://www.hh.ru/vacancy/42/"}
	_, ok = noID.PrimaryKey()
	assert.False(t, ok)
	assert.Equal(t, noID.FallbackKey(), noID.Identity())

	// составной ключ не зависит от источника, регистра и косметики URL
	assert.Equal(t, withID.FallbackKey(), noID.FallbackKey())

	other := noID
	other.URL = "https://hh.ru/vacancy/43"
	assert.NotEqual(t, noID.FallbackKey(), other.FallbackKey())
}

func TestIdentityIsPure(t *testing.T) {
	rec := CandidateRecord{Source: "sj", Title: "Backend", EmployerName: "X", URL: "https://x.ru/1"}
	assert.Equal(t, rec.Identity(), rec.Identity())
	assert.Len(t, string(rec.FallbackKey()), len(fallbackKeyPrefix)+64)
}

func TestContentHash(t *testing.T) {
	base := CandidateRecord{Title: "Go", URL: "u", Salary: NewSalaryRange(1, 2, "RUR"), PostedAt: time.Now()}
	same := base
	same.PostedAt = base.PostedAt.Add(time.Hour)
	assert.Equal(t, base.ContentHash(), same.ContentHash(), "дата публикации не влияет на отпечаток")

	changed := base
	changed.Salary = NewSalaryRange(1, 3, "RUR")
	assert.NotEqual(t, base.ContentHash(), changed.ContentHash())
}

func TestClassifyProviderError(t *testing.T) {
	assert.Nil(t, ClassifyProviderError("hh", nil))

	timeout := ClassifyProviderError("hh", fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.Equal(t, ProviderErrTimeout, timeout.Kind)
	assert.Equal(t, "hh", timeout.Source)

	typed := NewHTTPStatusError("sj", 503, errors.New("unavailable"))
	assert.Same(t, typed, ClassifyProviderError("sj", fmt.Errorf("wrap: %w", typed)))
	assert.Contains(t, typed.Error(), "503")

	other := ClassifyProviderError("hh", errors.New("connection reset"))
	assert.Equal(t, ProviderErrTransport, other.Kind)
}

func TestReconciliationErrorUnwrap(t *testing.T) {
	cause := errors.New("deadlock")
	err := error(&ReconciliationError{Stage: StageInsert, Succeeded: 100, Remaining: make([]CandidateRecord, 20), Err: cause})

	assert.ErrorIs(t, err, cause)
	var re *ReconciliationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 100, re.Succeeded)
	assert.Contains(t, err.Error(), "20 remaining")
}
