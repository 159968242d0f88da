// Персистентный key-value кэш с TTL поверх bbolt
package bolt_cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	ErrNotFound = errors.New("bolt cache: not found")
	ErrExpired  = errors.New("bolt cache: expired")
	ErrCorrupt  = errors.New("bolt cache: corrupt entry")
)

// длина заголовка записи: время истечения в UnixNano, big endian
const headerLen = 8

type Options struct {
	// имя бакета bbolt, по умолчанию "cache"
	Bucket string
	// таймаут ожидания файловой блокировки при открытии
	OpenTimeout time.Duration
}

// Store - кэш в одном файле bbolt, безопасен для конкурентного использования
type Store struct {
	db     *bolt.DB
	bucket []byte
	mu     sync.RWMutex
	now    func() time.Time
}

// Open открывает (или создаёт) файл кэша по пути path
func Open(path string, opts Options) (*Store, error) {
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}

	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: bucket, now: time.Now}, nil
}

// Close закрывает файл кэша
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put сохраняет value со сроком жизни ttl. При ttl <= 0 запись не истекает
func (s *Store) Put(key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}

	// формат: 8 байт expiresAt || значение
	buf := make([]byte, headerLen+len(value))
	binary.BigEndian.PutUint64(buf[:headerLen], uint64(expiresAt))
	copy(buf[headerLen:], value)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Get возвращает значение, если оно есть и не просрочено.
// Просроченная запись удаляется, вызывающий получает ErrExpired
func (s *Store) Get(key string) ([]byte, error) {
	return s.GetValid(key, nil)
}

// GetValid работает как Get, но дополнительно отбраковывает значение через valid.
// Отбракованная или битая запись удаляется. Перед удалением запись перепроверяется
// в той же транзакции Update, поэтому параллельный свежий Put не теряется
func (s *Store) GetValid(key string, valid func(value []byte) bool) ([]byte, error) {
	k := []byte(key)
	var out []byte

	s.mu.RLock()
	err := s.db.View(func(tx *bolt.Tx) error {
		v, err := s.check(tx.Bucket(s.bucket).Get(k), valid)
		if err != nil {
			return err
		}
		// значение из View валидно только внутри транзакции
		out = append([]byte(nil), v...)
		return nil
	})
	s.mu.RUnlock()
	if err == nil || !stale(err) {
		return out, err
	}

	var evicted error
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v, err := s.check(b.Get(k), valid)
		switch {
		case err == nil:
			out = append([]byte(nil), v...)
			return nil
		case stale(err):
			evicted = err
			return b.Delete(k)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	if evicted != nil {
		return nil, evicted
	}
	return out, nil
}

// check разбирает сырую запись и возвращает значение без заголовка
func (s *Store) check(v []byte, valid func([]byte) bool) ([]byte, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if len(v) < headerLen {
		return nil, ErrCorrupt
	}
	expiresAt := int64(binary.BigEndian.Uint64(v[:headerLen]))
	if expiresAt > 0 && s.now().UnixNano() >= expiresAt {
		return nil, ErrExpired
	}
	value := v[headerLen:]
	if valid != nil && !valid(value) {
		return nil, ErrExpired
	}
	return value, nil
}

func stale(err error) bool {
	return errors.Is(err, ErrExpired) || errors.Is(err, ErrCorrupt)
}

// DeleteByPrefix удаляет все ключи с префиксом и возвращает их количество
func (s *Store) DeleteByPrefix(prefix string) (int, error) {
	p := []byte(prefix)
	deleted := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		// удаляем после обхода, чтобы не ломать курсор
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return nil
	})
	return deleted, err
}
