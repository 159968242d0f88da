package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNoProviders         = errors.New("no providers selected")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrEmptyQuery          = errors.New("search query is empty")
	ErrInvalidSalaryBounds = errors.New("salary_from is greater than salary_to")
	ErrStoreNotConfigured  = errors.New("persistent store is not configured")
)

// ProviderErrorKind - категория ошибки провайдера
type ProviderErrorKind string

const (
	ProviderErrTimeout     ProviderErrorKind = "timeout"
	ProviderErrHTTPStatus  ProviderErrorKind = "http_status"
	ProviderErrParse       ProviderErrorKind = "parse_error"
	ProviderErrTransport   ProviderErrorKind = "transport"
	ProviderErrCircuitOpen ProviderErrorKind = "circuit_open"
)

// ProviderError - ошибка одного провайдера. Не прерывает поиск по остальным
type ProviderError struct {
	Source     string
	Kind       ProviderErrorKind
	StatusCode int // только для http_status
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Kind == ProviderErrHTTPStatus {
		return fmt.Sprintf("provider %s: %s %d: %v", e.Source, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(source string, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Source: source, Kind: kind, Err: err}
}

func NewHTTPStatusError(source string, status int, err error) *ProviderError {
	return &ProviderError{Source: source, Kind: ProviderErrHTTPStatus, StatusCode: status, Err: err}
}

// ClassifyProviderError оборачивает произвольную ошибку вызова провайдера в *ProviderError.
// Уже типизированная ошибка возвращается как есть, таймауты распознаются по контексту и net.Error
func ClassifyProviderError(source string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(source, ProviderErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewProviderError(source, ProviderErrTimeout, err)
	}
	return NewProviderError(source, ProviderErrTransport, err)
}

// CacheError - сбой хранилища кэша. Для вызывающего кода равносилен промаху
type CacheError struct {
	Op  string // get | set | delete
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ReconciliationStage - этап сверки, на котором произошла ошибка
type ReconciliationStage string

const (
	StageExistenceCheck ReconciliationStage = "existence_check"
	StageInsert         ReconciliationStage = "insert"
	StageUpdate         ReconciliationStage = "update"
)

// ReconciliationError сообщает, сколько записей этапа уже записано.
// Remaining содержит ещё не записанные записи, их можно безопасно отправить повторно
type ReconciliationError struct {
	Stage     ReconciliationStage
	Succeeded int
	Remaining []CandidateRecord
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation %s failed after %d succeeded rows (%d remaining): %v",
		e.Stage, e.Succeeded, len(e.Remaining), e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
