// Абстракция для реляционной БД, за которой прячется конкретный драйвер
package db

import "context"

// Pool - абстракция пула соединений
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// абстракция для одной записи
type Row interface {
	Scan(dest ...any) error
}

// абстракция для набора записей
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// абстракция для транзакций
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}
