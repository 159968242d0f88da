package converters

import (
	"strconv"
	"strings"
	"sync_service/internal/domain/models"
	"time"
)

// впомогательная функця получения имени источника
func getSourceName(source string) string {
	sourceMap := map[string]string{
		"hh":       "hh.ru",
		"superjob": "SuperJob",
	}

	if name, ok := sourceMap[source]; ok {
		return name
	}
	return source
}

// вспомогательная функция получения иконки
func getSourceIcon(source string) string {
	iconMap := map[string]string{
		"hh":       "https://hh.ru/favicon.ico",
		"superjob": "https://www.superjob.ru/favicon.ico",
	}
	return iconMap[source]
}

// форматирование вилки: "от 100 000 до 150 000 ₽"
func formatSalary(s *models.SalaryRange) string {
	if s == nil {
		return "не указана"
	}
	var parts []string
	if s.From != nil {
		parts = append(parts, "от "+groupThousands(*s.From))
	}
	if s.To != nil {
		parts = append(parts, "до "+groupThousands(*s.To))
	}
	if sym := getCurrencySymbol(s.Currency); sym != "" {
		parts = append(parts, sym)
	}
	return strings.Join(parts, " ")
}

// вспомогательная функция получения символа валюты
func getCurrencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "RUB", "RUR":
		return "₽"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return currency
	}
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
