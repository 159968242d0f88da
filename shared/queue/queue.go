// неблокирующая FIFO очередь на базе буферизированного канала
package queue

import (
	"sync"
	"sync_service/shared/interfaces"
)

// структура очереди: канал с фиксированной ёмкостью и флаг закрытия (атомарный)
type FIFOQueue[T any] struct {
	items  chan T
	closed int32
	mu     sync.RWMutex
}

// конструктор очереди с заданной ёмкостью
func NewFIFOQueue[T any](capacity int) *FIFOQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &FIFOQueue[T]{
		items: make(chan T, capacity),
	}
}

// Items возвращает канал для чтения (воркер может ждать элемент без активного опроса)
func (q *FIFOQueue[T]) Items() <-chan T {
	return q.items
}

var _ interfaces.FIFOQueueInterface[int] = (*FIFOQueue[int])(nil)
