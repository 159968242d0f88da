package converters

import (
	"errors"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_server/dto"
	"time"
)

// SearchRequestDTOToQuery - конвертация DTO в доменный запрос.
// Нормализация и валидация выполняются агрегатором
func SearchRequestDTOToQuery(req dto.SearchRequest) models.Query {
	return models.Query{
		Text:           req.Query,
		Area:           req.Area,
		SalaryFrom:     req.SalaryFrom,
		SalaryTo:       req.SalaryTo,
		OnlyWithSalary: req.OnlyWithSalary,
		Page:           req.Page,
		PerPage:        req.PerPage,
		EmployerIDs:    req.EmployerIDs,
	}
}

func SearchResultToDTO(res models.SearchResult) dto.SearchResponse {
	out := dto.SearchResponse{
		Success:           true,
		Total:             len(res.Records),
		DuplicatesSkipped: res.DuplicatesSkipped,
		Vacancies:         VacanciesToDTO(res.Records),
		ProviderErrors:    ProviderErrorsToDTO(res.ProviderErrors),
		Providers:         make([]dto.ProviderStatResponse, 0, len(res.Stats)),
	}
	for _, st := range res.Stats {
		stat := dto.ProviderStatResponse{
			Provider: st.Provider,
			Count:    st.Count,
			TookMs:   st.Duration.Milliseconds(),
		}
		if st.Err != nil {
			stat.Error = st.Err.Error()
		}
		out.Providers = append(out.Providers, stat)
	}
	return out
}

// SyncSummaryToDTO - итог синхронизации; err может быть *models.ReconciliationError с частичным итогом
func SyncSummaryToDTO(s models.SyncSummary, err error) dto.SyncResponse {
	out := dto.SyncResponse{
		Success:           err == nil,
		Total:             len(s.Records),
		Inserted:          s.Inserted,
		Updated:           s.Updated,
		Unchanged:         s.Unchanged,
		DuplicatesSkipped: s.DuplicatesSkipped,
		ProviderErrors:    ProviderErrorsToDTO(s.ProviderErrors),
		TookMs:            s.Duration.Milliseconds(),
	}
	var re *models.ReconciliationError
	if errors.As(err, &re) {
		out.Error = &dto.ReconciliationFailure{
			Stage:     string(re.Stage),
			Succeeded: re.Succeeded,
			Remaining: len(re.Remaining),
			Message:   re.Error(),
		}
	}
	return out
}

func VacanciesToDTO(records []models.CandidateRecord) []dto.VacancyResponse {
	out := make([]dto.VacancyResponse, 0, len(records))
	for _, r := range records {
		out = append(out, VacancyToDTO(r))
	}
	return out
}

func VacancyToDTO(r models.CandidateRecord) dto.VacancyResponse {
	v := dto.VacancyResponse{
		IdentityKey: string(r.Identity()),
		ExternalID:  r.ExternalID,
		Source: dto.SourceResponse{
			Code: r.Source,
			Name: getSourceName(r.Source),
			Icon: getSourceIcon(r.Source),
		},
		Title:       r.Title,
		Employer:    r.EmployerName,
		Salary:      dto.SalaryResponse{Formatted: formatSalary(r.Salary)},
		URL:         r.URL,
		Description: r.Description,
	}
	if r.Salary != nil {
		v.Salary.From = r.Salary.From
		v.Salary.To = r.Salary.To
		v.Salary.Currency = r.Salary.Currency
	}
	if !r.PostedAt.IsZero() {
		v.PostedAt = r.PostedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func ProviderErrorsToDTO(errs []*models.ProviderError) []dto.ProviderErrorResponse {
	out := make([]dto.ProviderErrorResponse, 0, len(errs))
	for _, e := range errs {
		if e == nil {
			continue
		}
		out = append(out, dto.ProviderErrorResponse{
			Provider:   e.Source,
			Kind:       string(e.Kind),
			StatusCode: e.StatusCode,
			Message:    e.Error(),
		})
	}
	return out
}

func ProviderStatusesToDTO(statuses []models.ProviderStatus) []dto.ProviderStatusResponse {
	out := make([]dto.ProviderStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, dto.ProviderStatusResponse{
			Name:                s.Name,
			Healthy:             s.IsHealthy,
			Initialized:         s.Initialized,
			CircuitState:        s.CircuitState,
			LastCheck:           formatTime(s.LastCheck),
			LastSuccess:         formatTime(s.LastSuccess),
			LastError:           s.LastError,
			ConsecutiveFailures: s.ConsecutiveFailures,
			SuccessCount:        s.SuccessCount,
			ResponseTimeMs:      s.ResponseTime.Milliseconds(),
		})
	}
	return out
}
