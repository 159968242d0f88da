// описание моделей запросов и ответов сервера синхронизации
package dto

// SearchRequest - запрос поиска и синхронизации. Пустой providers означает все провайдеры
type SearchRequest struct {
	Query          string   `json:"query" validate:"required,max=200"`
	Area           string   `json:"area"`
	SalaryFrom     int      `json:"salary_from" validate:"min=0"`
	SalaryTo       int      `json:"salary_to" validate:"min=0"`
	OnlyWithSalary bool     `json:"only_with_salary"`
	Page           int      `json:"page" validate:"min=0"`
	PerPage        int      `json:"per_page" validate:"min=0,max=100"`
	EmployerIDs    []string `json:"employer_ids" validate:"max=20,dive,required,max=32"`
	Providers      []string `json:"providers" validate:"max=10,dive,required"`
}

type SalaryResponse struct {
	From      *int   `json:"from,omitempty"`
	To        *int   `json:"to,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Formatted string `json:"formatted"` // "от 150 000 ₽" или "не указана"
}

type VacancyResponse struct {
	IdentityKey string         `json:"identity_key"`
	ExternalID  string         `json:"external_id,omitempty"`
	Source      SourceResponse `json:"source"`
	Title       string         `json:"title"`
	Employer    string         `json:"employer"`
	Salary      SalaryResponse `json:"salary"`
	URL         string         `json:"url"`
	Description string         `json:"description,omitempty"`
	PostedAt    string         `json:"posted_at,omitempty"` // RFC3339
}

type SourceResponse struct {
	Code string `json:"code"` // "hh", "superjob"
	Name string `json:"name"` // "hh.ru", "SuperJob"
	Icon string `json:"icon,omitempty"`
}

type ProviderErrorResponse struct {
	Provider   string `json:"provider"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

type ProviderStatResponse struct {
	Provider string `json:"provider"`
	Count    int    `json:"count"`
	TookMs   int64  `json:"took_ms"`
	Error    string `json:"error,omitempty"`
}

type SearchResponse struct {
	Success           bool                    `json:"success"`
	Total             int                     `json:"total"`
	DuplicatesSkipped int                     `json:"duplicates_skipped"`
	Vacancies         []VacancyResponse       `json:"vacancies"`
	ProviderErrors    []ProviderErrorResponse `json:"provider_errors"`
	Providers         []ProviderStatResponse  `json:"providers"`
}

type SyncResponse struct {
	Success           bool                    `json:"success"`
	Total             int                     `json:"total"`
	Inserted          int                     `json:"inserted"`
	Updated           int                     `json:"updated"`
	Unchanged         int                     `json:"unchanged"`
	DuplicatesSkipped int                     `json:"duplicates_skipped"`
	ProviderErrors    []ProviderErrorResponse `json:"provider_errors"`
	TookMs            int64                   `json:"took_ms"`
	Error             *ReconciliationFailure  `json:"error,omitempty"`
}

// ReconciliationFailure - сведения о прерванной записи в хранилище
type ReconciliationFailure struct {
	Stage     string `json:"stage"`
	Succeeded int    `json:"succeeded"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

type ProviderStatusResponse struct {
	Name                string `json:"name"`
	Healthy             bool   `json:"healthy"`
	Initialized         bool   `json:"initialized"`
	CircuitState        string `json:"circuit_state,omitempty"`
	LastCheck           string `json:"last_check,omitempty"`
	LastSuccess         string `json:"last_success,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	SuccessCount        int    `json:"success_count"`
	ResponseTimeMs      int64  `json:"response_time_ms"`
}

// CacheClearRequest - сброс кэша; пустой список означает все провайдеры
type CacheClearRequest struct {
	Providers []string `json:"providers" validate:"max=10,dive,required"`
}

type CacheClearResponse struct {
	Success bool           `json:"success"`
	Removed map[string]int `json:"removed"`
}
