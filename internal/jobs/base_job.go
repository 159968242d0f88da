// каждая джоба выполняется одним воркером
package jobs

import (
	"sync"
	"time"
)

// структура результата выполнения джобы
type JobOutput struct {
	Success bool
	Data    any
	Error   error
}

// структура базовой джобы, общая для всех джоб в очереди
type BaseJob struct {
	ID         string
	ResultChan chan *JobOutput // буферизированный канал на 1 элемент, иначе воркер заблокируется
	CreatedAt  time.Time
	notified   sync.Once
}

// Complete отправляет результат ровно один раз. Отправка не блокируется:
// если результат уже никто не ждёт, он отбрасывается
func (j *BaseJob) Complete(data any, err error) {
	j.notified.Do(func() {
		select {
		case j.ResultChan <- &JobOutput{Success: err == nil, Data: data, Error: err}:
		default:
		}
	})
}

// возвращает ID джобы
func (j *BaseJob) GetID() string {
	return j.ID
}
