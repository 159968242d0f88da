package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync_service/internal/domain/models"
)

// CacheKey генерирует ключ кэша по провайдеру и нормализованному запросу.
// Префикс провайдера позволяет сбрасывать кэш одного источника
func CacheKey(provider string, query models.Query) (string, error) {
	q := query.Normalize()
	provider = strings.ToLower(strings.TrimSpace(provider))

	// учитываем ВСЕ параметры, которые влияют на ответ провайдера
	keyData := struct {
		Provider       string   `json:"provider"`
		Text           string   `json:"text"`
		Area           string   `json:"area"`
		SalaryFrom     int      `json:"salary_from"`
		SalaryTo       int      `json:"salary_to"`
		OnlyWithSalary bool     `json:"only_with_salary"`
		Page           int      `json:"page"`
		PerPage        int      `json:"per_page"`
		EmployerIDs    []string `json:"employer_ids"`
	}{
		Provider:       provider,
		Text:           q.Text,
		Area:           q.Area,
		SalaryFrom:     q.SalaryFrom,
		SalaryTo:       q.SalaryTo,
		OnlyWithSalary: q.OnlyWithSalary,
		Page:           q.Page,
		PerPage:        q.PerPage,
		EmployerIDs:    q.EmployerIDs,
	}

	data, err := json.Marshal(keyData)
	if err != nil {
		return "", fmt.Errorf("marshal cache key params: %w", err)
	}
	hash := sha256.Sum256(data)
	return ProviderPrefix(provider) + hex.EncodeToString(hash[:]), nil
}

// ProviderPrefix - общий префикс всех ключей провайдера
func ProviderPrefix(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + ":"
}
