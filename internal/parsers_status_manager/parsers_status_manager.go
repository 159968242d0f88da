// описание мэнеджера состояния всех парсеров.
// Состояние обновляется по результатам реальных запросов агрегатора
package parsers_status_manager

import (
	"sort"
	"sync"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"time"
)

var _ sync_interfaces.ParsersStatusManager = (*ParserStatusManager)(nil)

// ParserStatusManager управляет статусами всех парсеров, ключ - имя парсера
type ParserStatusManager struct {
	parsersStats map[string]*models.ProviderStatus
	parsers      map[string]sync_interfaces.Parser
	now          func() time.Time
	mu           sync.RWMutex
}

// конструктор для нового менеджера статусов парсеров
func NewParserStatusManager(parsers ...sync_interfaces.Parser) *ParserStatusManager {
	psm := &ParserStatusManager{
		parsersStats: make(map[string]*models.ProviderStatus),
		parsers:      make(map[string]sync_interfaces.Parser),
		now:          time.Now,
	}

	for _, parser := range parsers {
		psm.parsers[parser.GetName()] = parser
		psm.parsersStats[parser.GetName()] = &models.ProviderStatus{
			Name:         parser.GetName(),
			CircuitState: "closed",
		}
	}
	return psm
}

// UpdateStatus обновляет статус парсера (потокобезопасен)
func (psm *ParserStatusManager) UpdateStatus(name string, success bool, err error, responseTime time.Duration) {
	psm.mu.Lock()
	defer psm.mu.Unlock()

	status, exists := psm.parsersStats[name]
	if !exists {
		status = &models.ProviderStatus{Name: name}
		psm.parsersStats[name] = status
	}

	now := psm.now()
	status.Initialized = true
	status.LastCheck = now
	status.ResponseTime = responseTime

	if success {
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.IsHealthy = true
		status.LastSuccess = now
		status.LastError = ""
	} else {
		status.ConsecutiveFailures++
		status.SuccessCount = 0
		status.IsHealthy = false
		if err != nil {
			status.LastError = err.Error()
		}
	}
}

// GetParserStatus возвращает копию статуса конкретного парсера
func (psm *ParserStatusManager) GetParserStatus(name string) (models.ProviderStatus, bool) {
	psm.mu.RLock()
	defer psm.mu.RUnlock()

	status, exists := psm.parsersStats[name]
	if !exists {
		return models.ProviderStatus{}, false
	}
	return psm.snapshot(status), true
}

// GetAllStatuses возвращает статусы всех парсеров, отсортированные по имени
func (psm *ParserStatusManager) GetAllStatuses() []models.ProviderStatus {
	psm.mu.RLock()
	defer psm.mu.RUnlock()

	out := make([]models.ProviderStatus, 0, len(psm.parsersStats))
	for _, status := range psm.parsersStats {
		out = append(out, psm.snapshot(status))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// снимок статуса с актуальным состоянием circuit breaker, вызывается под мьютексом
func (psm *ParserStatusManager) snapshot(status *models.ProviderStatus) models.ProviderStatus {
	out := *status
	if cs, ok := psm.parsers[status.Name].(sync_interfaces.CircuitStater); ok {
		out.CircuitState = cs.CircuitState()
	}
	return out
}
