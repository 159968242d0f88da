package models

import "time"

// ProviderSearchStat - результат опроса одного провайдера в рамках одного поиска
type ProviderSearchStat struct {
	Provider string
	Count    int
	Duration time.Duration
	Err      *ProviderError
}

// SearchResult - объединённый и дедуплицированный результат агрегатора.
// Частичный результат при ошибках отдельных провайдеров - штатная ситуация
type SearchResult struct {
	Records           []CandidateRecord
	ProviderErrors    []*ProviderError
	DuplicatesSkipped int
	Stats             []ProviderSearchStat
}

// SyncSummary - итог одного прохода синхронизации: поиск, сверка и запись
type SyncSummary struct {
	ApplyResult
	DuplicatesSkipped int
	ProviderErrors    []*ProviderError
	Records           []CandidateRecord
	Duration          time.Duration
}

// ProviderStatus - состояние провайдера по результатам последних запросов
type ProviderStatus struct {
	Name                string
	IsHealthy           bool
	Initialized         bool // false - провайдер ещё не опрашивался
	LastCheck           time.Time
	LastSuccess         time.Time
	LastError           string
	ConsecutiveFailures int
	SuccessCount        int
	ResponseTime        time.Duration
	CircuitState        string // "closed", "open", "half-open"
}
