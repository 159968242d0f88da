package models

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// IdentityKey определяет, описывают ли две записи одну и ту же вакансию
type IdentityKey string

const (
	primaryKeySep     = ":"
	fallbackKeyPrefix = "fp:"
)

// PrimaryKey - ключ по (source, external_id). ok=false, если у записи нет внешнего id
func (c CandidateRecord) PrimaryKey() (IdentityKey, bool) {
	source := strings.ToLower(strings.TrimSpace(c.Source))
	id := strings.TrimSpace(c.ExternalID)
	if source == "" || id == "" {
		return "", false
	}
	return IdentityKey(source + primaryKeySep + id), true
}

// FallbackKey - составной ключ по (title, employer_name, url), не зависит от источника.
// Хэшируется, чтобы длина ключа в хранилище была фиксированной
func (c CandidateRecord) FallbackKey() IdentityKey {
	raw := strings.Join([]string{
		NormalizeText(c.Title),
		NormalizeText(c.EmployerName),
		normalizeURL(c.URL),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return IdentityKey(fallbackKeyPrefix + hex.EncodeToString(sum[:]))
}

// Identity возвращает ключ, под которым запись хранится: первичный, если есть, иначе составной
func (c CandidateRecord) Identity() IdentityKey {
	if key, ok := c.PrimaryKey(); ok {
		return key
	}
	return c.FallbackKey()
}

// normalizeURL убирает схему, www, завершающий слэш и фрагмент, хост в нижнем регистре.
// Query-параметры сохраняются: у некоторых провайдеров id вакансии передаётся в них
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	out := host + path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}
