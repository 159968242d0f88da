// вспомогательные функции чтения переменных окружения с валидацией
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// getRequiredEnv получает обязательную переменную окружения
func getRequiredEnv(key string) (string, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return val, nil
}

// getEnvWithDefault получает переменную окружения или значение по умолчанию
func getEnvWithDefault(key, defaultValue string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultValue
}

// getEnvAsBool получает переменную окружения как bool
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: must be a boolean, got %q", key, val)
	}
	return b, nil
}

// getEnvAsInt32WithValidation получает переменную окружения как int32 с валидацией
func getEnvAsInt32WithValidation(key string, defaultValue, min, max int32) (int32, error) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		i, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return defaultValue, fmt.Errorf("%s: must be an int32 integer, got %q", key, val)
		}

		result := int32(i)
		if result < min || result > max {
			return defaultValue, fmt.Errorf("%s: value %d is out of range [%d, %d]", key, result, min, max)
		}

		return result, nil
	}
	return defaultValue, nil
}

// getEnvAsDurationWithValidation получает переменную окружения как time.Duration с валидацией
func getEnvAsDurationWithValidation(key string, defaultValue, min, max time.Duration) (time.Duration, error) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		// Пробуем распарсить как duration строку
		d, err := time.ParseDuration(val)
		if err != nil {
			// Пробуем как число (предполагаем секунды)
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return defaultValue, fmt.Errorf("%s: must be a duration (like '1m', '1h') or number of seconds, got %q", key, val)
			}
			d = time.Duration(i) * time.Second
		}

		if d < min || d > max {
			return defaultValue, fmt.Errorf("%s: duration %v is out of range [%v, %v]", key, d, min, max)
		}

		return d, nil
	}
	return defaultValue, nil
}

// envReader читает набор переменных и копит ошибки, чтобы сообщить обо всех сразу
type envReader struct {
	errs []string
}

func (r *envReader) required(key string) string {
	val, err := getRequiredEnv(key)
	r.check(err)
	return val
}

func (r *envReader) asInt32(key string, def, min, max int32) int32 {
	val, err := getEnvAsInt32WithValidation(key, def, min, max)
	r.check(err)
	return val
}

func (r *envReader) asDuration(key string, def, min, max time.Duration) time.Duration {
	val, err := getEnvAsDurationWithValidation(key, def, min, max)
	r.check(err)
	return val
}

func (r *envReader) asBool(key string, def bool) bool {
	val, err := getEnvAsBool(key, def)
	r.check(err)
	return val
}

// expect добавляет ошибку, если межполевое условие нарушено
func (r *envReader) expect(ok bool, format string, args ...any) {
	if !ok {
		r.errs = append(r.errs, fmt.Sprintf(format, args...))
	}
}

func (r *envReader) check(err error) {
	if err != nil {
		r.errs = append(r.errs, err.Error())
	}
}

func (r *envReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(r.errs, "; "))
}
