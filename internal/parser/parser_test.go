package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/shared/logging"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hhBody = `{
  "found": 3, "pages": 1, "page": 0,
  "items": [
    {"id": "42", "name": "Go developer", "alternate_url": "https://hh.ru/vacancy/42",
     "employer": {"id": "1", "name": "Acme"},
     "salary": {"from": 200000, "to": null, "currency": "RUR", "gross": false},
     "published_at": "2024-01-15T10:30:00+0300",
     "snippet": {"requirement": "Опыт с <highlighttext>Go</highlighttext>", "responsibility": "Писать сервисы"}},
    {"id": "43", "name": "", "alternate_url": "https://hh.ru/vacancy/43"},
    {"id": "44", "name": "Backend", "alternate_url": "https://hh.ru/vacancy/44", "salary": null, "employer": {"name": "Beta"}},
    "not an object"
  ]
}`

const sjBody = `{
  "total": 2, "more": false,
  "objects": [
    {"id": 777, "profession": "Go разработчик", "firm_name": "Acme", "payment_from": 0, "payment_to": 0,
     "currency": "rub", "link": "https://superjob.ru/vakansii/777.html", "date_published": 1705300000,
     "vacancyRichText": "<p>Обязанности</p><ul><li>код</li><li>ревью</li></ul>"},
    {"id": 778, "profession": "Без ссылки", "link": ""}
  ]
}`

func testParserConfig(baseURL string) *configs.ParserInstanceConfig {
	cfg := configs.DefaultParsersConfig().HH
	cfg.BaseURL = baseURL
	cfg.RateLimit = time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestHHParserSearchVacancies(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"text":             r.URL.Query().Get("text"),
			"per_page":         r.URL.Query().Get("per_page"),
			"area":             r.URL.Query().Get("area"),
			"only_with_salary": r.URL.Query().Get("only_with_salary"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hhBody))
	}))
	defer srv.Close()

	p, err := NewHHParser(testParserConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	q := models.Query{Text: "golang", Area: "1", OnlyWithSalary: true}.Normalize()
	records, err := p.SearchVacancies(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "golang", gotQuery["text"])
	assert.Equal(t, "20", gotQuery["per_page"])
	assert.Equal(t, "1", gotQuery["area"])
	assert.Equal(t, "true", gotQuery["only_with_salary"])

	// битые элементы пропущены, остальные сконвертированы
	require.Len(t, records, 2)
	first := records[0]
	assert.Equal(t, "42", first.ExternalID)
	assert.Equal(t, "hh", first.Source)
	assert.Equal(t, "Go developer", first.Title)
	assert.Equal(t, "Acme", first.EmployerName)
	require.NotNil(t, first.Salary)
	assert.Equal(t, 200000, *first.Salary.From)
	assert.Nil(t, first.Salary.To)
	assert.Equal(t, "Опыт с Go\nПисать сервисы", first.Description)
	assert.Equal(t, time.Date(2024, 1, 15, 7, 30, 0, 0, time.UTC), first.PostedAt)

	assert.Nil(t, records[1].Salary)
}

func TestSJParserSearchVacancies(t *testing.T) {
	var gotKey, gotKeyword, gotTown string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-App-Id")
		gotKeyword = r.URL.Query().Get("keyword")
		gotTown = r.URL.Query().Get("town")
		_, _ = w.Write([]byte(sjBody))
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.APIKey = "v3.secret"
	p, err := NewSJParser(cfg, logging.NewNop())
	require.NoError(t, err)

	records, err := p.SearchVacancies(context.Background(), models.Query{Text: "go", Area: "Москва"}.Normalize())
	require.NoError(t, err)

	assert.Equal(t, "v3.secret", gotKey)
	assert.Equal(t, "go", gotKeyword)
	assert.Equal(t, "москва", gotTown)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "777", rec.ExternalID)
	assert.Equal(t, "superjob", rec.Source)
	assert.Nil(t, rec.Salary, "нулевые payment_from/payment_to означают отсутствие зарплаты")
	assert.Equal(t, "Обязанности\nкод\nревью", rec.Description)
	assert.Equal(t, time.Unix(1705300000, 0).UTC(), rec.PostedAt)
}

// hhPage - страница выдачи HH с одной вакансией, id совпадает с номером страницы
func hhPage(page, pages int) string {
	id := strconv.Itoa(100 + page)
	return `{"found": 50, "pages": ` + strconv.Itoa(pages) + `, "page": ` + strconv.Itoa(page) + `,
	  "items": [{"id": "` + id + `", "name": "Go", "alternate_url": "https://hh.ru/vacancy/` + id + `"}]}`
}

func TestHHParserFollowsPagesUpToMaxPages(t *testing.T) {
	var (
		mu        sync.Mutex
		requested []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		requested = append(requested, r.URL.Query().Get("page"))
		mu.Unlock()
		_, _ = w.Write([]byte(hhPage(page, 10)))
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.MaxPages = 3
	p, err := NewHHParser(cfg, logging.NewNop())
	require.NoError(t, err)

	records, err := p.SearchVacancies(context.Background(), models.Query{Text: "go", Page: 2}.Normalize())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"2", "3", "4"}, requested, "пагинация начинается со страницы запроса")
	require.Len(t, records, 3)
	assert.Equal(t, "104", records[2].ExternalID)
}

func TestHHParserStopsOnLastPage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(hhPage(page, 2)))
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.MaxPages = 10
	p, err := NewHHParser(cfg, logging.NewNop())
	require.NoError(t, err)

	records, err := p.SearchVacancies(context.Background(), models.Query{Text: "go"}.Normalize())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPaginationKeepsRecordsWhenLaterPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(hhPage(page, 5)))
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.MaxPages = 5
	p, err := NewHHParser(cfg, logging.NewNop())
	require.NoError(t, err)

	records, err := p.SearchVacancies(context.Background(), models.Query{Text: "go"}.Normalize())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "100", records[0].ExternalID)
}

func TestSJParserFollowsMoreFlag(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		more := "true"
		if n == 2 {
			more = "false"
		}
		id := strconv.Itoa(int(n))
		_, _ = w.Write([]byte(`{"total": 2, "more": ` + more + `, "objects": [
		  {"id": ` + id + `, "profession": "Go", "link": "https://superjob.ru/` + id + `"}]}`))
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.MaxPages = 5
	p, err := NewSJParser(cfg, logging.NewNop())
	require.NoError(t, err)

	records, err := p.SearchVacancies(context.Background(), models.Query{Text: "go"}.Normalize())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEmployerFilterInProviderURL(t *testing.T) {
	q := models.Query{Text: "go", EmployerIDs: []string{"78638", "3529"}}.Normalize()

	hh := &HHParser{BaseParser: &BaseParser{baseURL: "https://api.hh.ru/vacancies"}}
	raw, err := hh.buildURL(q)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"3529", "78638"}, u.Query()["employer_id"])

	sj := &SJParser{BaseParser: &BaseParser{baseURL: "https://api.superjob.ru/2.0/vacancies/"}}
	raw, err = sj.buildURL(q)
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"3529", "78638"}, u.Query()["id_client"])

	raw, err = hh.buildURL(models.Query{Text: "go"}.Normalize())
	require.NoError(t, err)
	assert.NotContains(t, raw, "employer_id")
}

func TestParserHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := NewHHParser(testParserConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	_, err = p.SearchVacancies(context.Background(), models.Query{Text: "go"}.Normalize())
	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ProviderErrHTTPStatus, pe.Kind)
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Equal(t, "hh", pe.Source)
}

func TestParserParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	p, err := NewHHParser(testParserConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	_, err = p.SearchVacancies(context.Background(), models.Query{Text: "go"}.Normalize())
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ProviderErrParse, pe.Kind)
}

func TestParserTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p, err := NewHHParser(testParserConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = p.SearchVacancies(ctx, models.Query{Text: "go"}.Normalize())
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ProviderErrTimeout, pe.Kind)
}

func TestParserCircuitOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testParserConfig(srv.URL)
	cfg.CircuitBreaker.FailureThreshold = 2
	cfg.CircuitBreaker.ResetTimeout = time.Minute
	p, err := NewHHParser(cfg, logging.NewNop())
	require.NoError(t, err)

	q := models.Query{Text: "go"}.Normalize()
	for i := 0; i < 2; i++ {
		_, _ = p.SearchVacancies(context.Background(), q)
	}

	_, err = p.SearchVacancies(context.Background(), q)
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ProviderErrCircuitOpen, pe.Kind)
	assert.Equal(t, "open", p.(*HHParser).CircuitState())
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "", htmlToText("   "))
	assert.Equal(t, "plain text", htmlToText("plain text"))
	assert.Equal(t, "a\nb", htmlToText("a<br>b"))
	assert.Equal(t, "Tom & Jerry", htmlToText("Tom &amp; Jerry"))
	assert.Equal(t, "title\nitem", htmlToText("<p>title</p><script>alert(1)</script><li>item</li>"))
	assert.Len(t, []rune(htmlToText(string(make([]rune, maxDescriptionLen+10)))), maxDescriptionLen)
}

func TestParserFactory(t *testing.T) {
	cfg := configs.DefaultParsersConfig()
	cfg.SuperJob.Enabled = false
	f := NewDefaultParserFactory(cfg, logging.NewNop())

	parsers, err := f.CreateEnabled()
	require.NoError(t, err)
	require.Len(t, parsers, 1)
	assert.Equal(t, "hh", parsers[0].GetName())

	_, err = f.Create("rabota")
	assert.ErrorIs(t, err, models.ErrUnknownProvider)

	cfg.HH.Enabled = false
	_, err = f.CreateEnabled()
	assert.ErrorIs(t, err, models.ErrNoProviders)
}

func TestIsProviderFailure(t *testing.T) {
	assert.False(t, isProviderFailure(context.Canceled))
	assert.False(t, isProviderFailure(models.NewHTTPStatusError("hh", http.StatusBadRequest, errors.New("bad"))))
	assert.True(t, isProviderFailure(models.NewHTTPStatusError("hh", http.StatusTooManyRequests, errors.New("slow down"))))
	assert.True(t, isProviderFailure(models.NewHTTPStatusError("hh", http.StatusServiceUnavailable, errors.New("down"))))
	assert.True(t, isProviderFailure(context.DeadlineExceeded))
	assert.True(t, isProviderFailure(errors.New("connection refused")))
}
