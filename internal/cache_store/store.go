// Хранилища кэша результатов провайдеров: память, Redis, файл bbolt
package cache_store

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

// Store - контракт хранилища кэша.
// Get возвращает found=false и для отсутствующего, и для просроченного ключа; просроченная запись удаляется.
// Set атомарен для ключа: payload и срок жизни записываются одной операцией
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

var (
	ErrInvalidTTL    = errors.New("cache ttl must be positive")
	ErrShortEnvelope = errors.New("cache envelope is too short")
)

// заголовок конверта: stored_at (UnixNano) || ttl (ns), оба big endian
const envelopeHeaderLen = 16

// envelope - запись кэша вместе с моментом записи и сроком жизни
type envelope struct {
	storedAt time.Time
	ttl      time.Duration
	payload  []byte
}

func (e envelope) validAt(now time.Time) bool {
	return now.Before(e.storedAt.Add(e.ttl))
}

func encodeEnvelope(e envelope) []byte {
	buf := make([]byte, envelopeHeaderLen+len(e.payload))
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.storedAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(e.ttl))
	copy(buf[envelopeHeaderLen:], e.payload)
	return buf
}

func decodeEnvelope(raw []byte) (envelope, error) {
	if len(raw) < envelopeHeaderLen {
		return envelope{}, ErrShortEnvelope
	}
	return envelope{
		storedAt: time.Unix(0, int64(binary.BigEndian.Uint64(raw[0:8]))),
		ttl:      time.Duration(binary.BigEndian.Uint64(raw[8:16])),
		payload:  append([]byte(nil), raw[envelopeHeaderLen:]...),
	}, nil
}
