package queue

import "sync/atomic"

// Enqueue не блокируется: false, если очередь закрыта или заполнена
func (q *FIFOQueue[T]) Enqueue(item T) bool {
	// RLock не даёт Close закрыть канал между проверкой флага и отправкой
	q.mu.RLock()
	defer q.mu.RUnlock()

	if atomic.LoadInt32(&q.closed) == 1 {
		return false
	}

	select {
	case q.items <- item:
		return true
	default:
		return false
	}
}

// Dequeue не блокируется: false, если элементов нет
func (q *FIFOQueue[T]) Dequeue() (T, bool) {
	var zero T
	select {
	case item, ok := <-q.items:
		if !ok {
			return zero, false
		}
		return item, true
	default:
		return zero, false
	}
}

func (q *FIFOQueue[T]) Size() int {
	return len(q.items)
}

// Close идемпотентен; оставшиеся элементы остаются доступны для чтения
func (q *FIFOQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if atomic.CompareAndSwapInt32(&q.closed, 0, 1) {
		close(q.items)
	}
}
