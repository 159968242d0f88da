package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync_service/internal/domain/models"
	"sync_service/shared/circuitbreaker"
	"sync_service/shared/config"
	"sync_service/shared/interfaces"
	"sync_service/shared/logging"
	"sync_service/shared/rate_limiter"
	"time"
)

const (
	semaphoreWaitTimeout = 2 * time.Second
	maxResponseBytes     = 10 << 20 // 10MB
	maxErrorBodyBytes    = 512
)

// BaseConfig конфигурация базового парсера
type BaseConfig struct {
	Name                  string                      // имя парсера (к какому источнику будет привязан)
	BaseURL               string                      // базовый URL, через который бдет осуществляться поиск
	APIKey                string                      // API ключ, если предусмотрен сервисом
	UserAgent             string                      // HH требует осмысленный User-Agent
	Timeout               time.Duration               // таймаут для http клиента
	RateLimit             time.Duration               // интервал для rate limiter (ограничение частоты обращения к ресурсу)
	MaxConcurrent         int                         // резмер буфера для семафора (ограничение конкурентности), и ограничение для http клиента
	MaxPages              int                         // сколько страниц выдачи забирать за один поиск, начиная с Query.Page
	CircuitBreakerCfg     config.CircuitBreakerConfig // конфиг для circuit breaker
	MaxIdleConns          int                         // максимальное количество бездействующих (keep-alive) соединений
	IdleConnTimeout       time.Duration               // интервал, через сколько закрывать неиспользуемое соединение
	TLSHandshakeTimeout   time.Duration               // максимальное время ожидания завершения TLS handshake
	ResponseHeaderTimeout time.Duration               // интервал, сколько ждать ответа сервера после отправки запроса
	ExpectContinueTimeout time.Duration               // интервал, оптимизация для сценариев загрузки больших данных
}

// BaseParser базовая реализация парсера: транспорт, ограничения и классификация ошибок.
// Разбор ответа конкретного провайдера передаётся через ParserFuncs
type BaseParser struct {
	name           string
	baseURL        string
	apiKey         string
	userAgent      string
	httpClient     *http.Client
	rateLimiter    interfaces.RateLimiter
	circuitBreaker interfaces.CBInterface
	semaphore      chan struct{}
	maxPages       int
	logger         *logging.Logger
}

// Конструктор, который создает базовый парсер
func NewBaseParser(cfg BaseConfig, logger *logging.Logger) (*BaseParser, error) {
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max concurrent must be positive, got %d", cfg.MaxConcurrent)
	}

	rateLimiter, err := rate_limiter.NewChannelRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &BaseParser{
		name:           cfg.Name,
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		userAgent:      cfg.UserAgent,
		httpClient:     createHTTPClient(cfg),
		rateLimiter:    rateLimiter,
		circuitBreaker: circuitbreaker.NewCircuitBreaker(cfg.CircuitBreakerCfg, circuitbreaker.WithFailurePredicate(isProviderFailure)),
		semaphore:      make(chan struct{}, cfg.MaxConcurrent),
		maxPages:       maxPages,
		logger:         logger.With("parser", cfg.Name),
	}, nil
}

// функция, которая создаёт новый клиент с параметрами
func createHTTPClient(cfg BaseConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxConnsPerHost:       cfg.MaxConcurrent,
			MaxIdleConnsPerHost:   cfg.MaxIdleConns,
			IdleConnTimeout:       cfg.IdleConnTimeout,
			TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
			ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		},
	}
}

// PageItems - элементы одной страницы выдачи и признак, что у провайдера есть следующая
type PageItems struct {
	Items   []json.RawMessage
	HasMore bool
}

// ParserFuncs определяет специфичные для провайдера шаги
type ParserFuncs struct {
	BuildURL    func(models.Query) (string, error)
	SetHeaders  func(*http.Request)
	SplitPage   func([]byte) (PageItems, error)
	ConvertItem func(json.RawMessage) (models.CandidateRecord, error)
}

// SearchVacancies общий метод для поиска вакансий: забирает до maxPages страниц подряд,
// пока провайдер сообщает, что выдача не закончилась.
// Ошибка всегда *models.ProviderError и возвращается только если не удалась первая страница;
// сбой на следующих страницах обрывает пагинацию, собранные записи сохраняются.
// Битые элементы ответа пропускаются
func (p *BaseParser) SearchVacancies(ctx context.Context, query models.Query, funcs ParserFuncs) ([]models.CandidateRecord, error) {
	records := make([]models.CandidateRecord, 0)

	for i := 0; i < p.maxPages; i++ {
		pageQuery := query
		pageQuery.Page = query.Page + i

		page, err := p.fetchPage(ctx, pageQuery, funcs)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			p.logger.Warn("pagination stopped", "page", pageQuery.Page, "reason", err.Error())
			break
		}

		records = append(records, p.convertItems(page.Items, funcs.ConvertItem)...)
		if !page.HasMore || len(page.Items) == 0 {
			break
		}
	}

	return records, nil
}

// fetchPage запрашивает одну страницу выдачи через circuit breaker, семафор и rate limiter
func (p *BaseParser) fetchPage(ctx context.Context, query models.Query, funcs ParserFuncs) (PageItems, error) {
	apiURL, err := funcs.BuildURL(query)
	if err != nil {
		return PageItems{}, models.NewProviderError(p.name, models.ProviderErrTransport, fmt.Errorf("build URL failed: %w", err))
	}

	var body []byte

	err = p.circuitBreaker.Execute(func() error {
		if err := p.acquireSemaphore(ctx); err != nil {
			return err
		}
		defer p.releaseSemaphore()

		// перед запросом ждём разрешения rate limiter
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		p.logger.Debug("requesting provider", "url", apiURL)
		resp, err := p.executeRequest(ctx, apiURL, funcs.SetHeaders)
		if err != nil {
			return err
		}
		defer p.drainAndClose(resp)

		if err := p.checkResponseStatus(resp); err != nil {
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return PageItems{}, p.classifyError(err)
	}

	page, err := funcs.SplitPage(body)
	if err != nil {
		return PageItems{}, models.NewProviderError(p.name, models.ProviderErrParse, err)
	}
	return page, nil
}

func (p *BaseParser) convertItems(items []json.RawMessage, convert func(json.RawMessage) (models.CandidateRecord, error)) []models.CandidateRecord {
	records := make([]models.CandidateRecord, 0, len(items))
	for i, raw := range items {
		rec, err := convert(raw)
		if err != nil {
			p.logger.Warn("skipping malformed vacancy", "index", i, "reason", err.Error())
			continue
		}
		records = append(records, rec)
	}
	p.logger.Debug("provider page parsed", "items", len(items), "records", len(records))
	return records
}

// метод проверки доступности семафора
func (p *BaseParser) acquireSemaphore(ctx context.Context) error {
	timer := time.NewTimer(semaphoreWaitTimeout)
	defer timer.Stop()

	select {
	case p.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for semaphore: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("semaphore timeout: %s API is busy", p.name)
	}
}

// метод освобождения семафора
func (p *BaseParser) releaseSemaphore() {
	<-p.semaphore
}

// метод для выполнения HTTP запроса через клиент
func (p *BaseParser) executeRequest(ctx context.Context, url string, setHeaders func(*http.Request)) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if setHeaders != nil {
		setHeaders(req)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

// метод для дренирования и закрытия тела ответа, освобождения ресурсов
func (p *BaseParser) drainAndClose(resp *http.Response) {
	const maxBodySlurp = 1 << 20 // 1MB
	_, _ = io.CopyN(io.Discard, resp.Body, maxBodySlurp)
	_ = resp.Body.Close()
}

// метод проверки статуса ответа на запрос к API
func (p *BaseParser) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return models.NewHTTPStatusError(p.name, resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
}

// classifyError определяет род ошибки: circuit breaker, таймаут, статус или транспорт
func (p *BaseParser) classifyError(err error) *models.ProviderError {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		total, success, failures := p.circuitBreaker.GetStats()
		p.logger.Warn("circuit breaker rejected request",
			"total", total, "success", success, "failures", failures)
		return models.NewProviderError(p.name, models.ProviderErrCircuitOpen,
			fmt.Errorf("%s is temporarily unavailable: %w", p.name, err))
	}
	return models.ClassifyProviderError(p.name, err)
}

// GetName возвращает имя парсера
func (p *BaseParser) GetName() string {
	return p.name
}

// CircuitState возвращает состояние circuit breaker парсера
func (p *BaseParser) CircuitState() string {
	return p.circuitBreaker.State().String()
}

// isProviderFailure - считается ли ошибка отказом провайдера для circuit breaker.
// Отмена вызывающим и ответы 4xx (кроме 429) говорят о запросе, а не о провайдере
func isProviderFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var pe *models.ProviderError
	if errors.As(err, &pe) && pe.Kind == models.ProviderErrHTTPStatus {
		return pe.StatusCode >= http.StatusInternalServerError || pe.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Close останавливает rate limiter парсера
func (p *BaseParser) Close() {
	p.rateLimiter.Stop()
}
