// описание конфига для подключения к базе PostgresQL
package config

import (
	"fmt"
	"time"
)

// PostgresDBConfig - DSN и параметры пула pgxpool для хранилища вакансий
type PostgresDBConfig struct {
	DSN string

	MaxConns          int32
	MinConns          int32
	HealthCheckPeriod time.Duration
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	ConnectTimeout    time.Duration

	// создавать ли таблицу вакансий при старте
	AutoMigrate bool
}

// NewPostgresDBConfigFromEnv читает DB_* и проверяет диапазоны значений
func NewPostgresDBConfigFromEnv() (*PostgresDBConfig, error) {
	var r envReader

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		r.required("DB_HOST"),
		getEnvWithDefault("DB_PORT", "5432"),
		r.required("DB_USER"),
		r.required("DB_PASSWORD"),
		r.required("DB_NAME"),
		getEnvWithDefault("DB_SSL_MODE", "disable"),
	)

	cfg := &PostgresDBConfig{
		DSN:               dsn,
		MaxConns:          r.asInt32("DB_MAX_CONNS", 10, 1, 100),
		MinConns:          r.asInt32("DB_MIN_CONNS", 2, 0, 50),
		HealthCheckPeriod: r.asDuration("DB_HEALTH_CHECK_PERIOD", time.Minute, time.Second, 5*time.Minute),
		MaxConnLifetime:   r.asDuration("DB_MAX_CONN_LIFETIME", time.Hour, time.Second, 24*time.Hour),
		MaxConnIdleTime:   r.asDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute, time.Second, 24*time.Hour),
		ConnectTimeout:    r.asDuration("DB_CONNECT_TIMEOUT", 5*time.Second, time.Second, time.Minute),
		AutoMigrate:       r.asBool("DB_AUTO_MIGRATE", true),
	}

	r.expect(cfg.MinConns <= cfg.MaxConns,
		"DB_MIN_CONNS (%d) cannot be greater than DB_MAX_CONNS (%d)", cfg.MinConns, cfg.MaxConns)
	r.expect(cfg.MaxConnIdleTime <= cfg.MaxConnLifetime,
		"DB_MAX_CONN_IDLE_TIME (%v) cannot be greater than DB_MAX_CONN_LIFETIME (%v)", cfg.MaxConnIdleTime, cfg.MaxConnLifetime)

	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
