package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ExistingRecord - то, что хранилище знает о сохранённой записи
type ExistingRecord struct {
	ID          string      // собственный идентификатор хранилища
	IdentityKey IdentityKey // ключ, под которым запись сохранена
	FallbackKey IdentityKey // составной ключ сохранённой версии
	ContentHash string      // ContentHash сохранённой версии записи
}

// ExistingSet - найденные записи, доступные и по identity, и по составному ключу.
// Совпадение по identity важнее: составной ключ не перетирает запись, сохранённую под этим же ключом
type ExistingSet map[IdentityKey]ExistingRecord

func (s ExistingSet) Add(rec ExistingRecord) {
	if rec.IdentityKey != "" {
		s[rec.IdentityKey] = rec
	}
	if rec.FallbackKey == "" || rec.FallbackKey == rec.IdentityKey {
		return
	}
	if cur, ok := s[rec.FallbackKey]; ok && cur.IdentityKey == rec.FallbackKey {
		return
	}
	s[rec.FallbackKey] = rec
}

// Lookup ищет сохранённую запись кандидата: сначала по его identity, затем по составному ключу.
// Так запись, сохранённая под ключом другого провайдера той же группы дублей, находится повторно
func (s ExistingSet) Lookup(c CandidateRecord) (ExistingRecord, bool) {
	if rec, ok := s[c.Identity()]; ok {
		return rec, true
	}
	rec, ok := s[c.FallbackKey()]
	return rec, ok
}

// LookupKeys - ключи, по которым ищется кандидат в хранилище
func (c CandidateRecord) LookupKeys() []IdentityKey {
	id, fb := c.Identity(), c.FallbackKey()
	if id == fb {
		return []IdentityKey{id}
	}
	return []IdentityKey{id, fb}
}

// PlannedUpdate - запись, которая уже есть в хранилище
type PlannedUpdate struct {
	ExistingID string
	Record     CandidateRecord
	Changed    bool // содержимое отличается от сохранённого
}

// ReconciliationPlan вычисляется один раз на вызов сверки и применяется один раз
type ReconciliationPlan struct {
	ToInsert []CandidateRecord
	ToUpdate []PlannedUpdate
}

// Size - общее количество записей в плане
func (p ReconciliationPlan) Size() int {
	return len(p.ToInsert) + len(p.ToUpdate)
}

// ApplyResult - итог применения плана
type ApplyResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// ContentHash - отпечаток значимых полей записи для обнаружения изменений при повторной синхронизации
func (c CandidateRecord) ContentHash() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.Title))
	b.WriteByte(0)
	b.WriteString(strings.TrimSpace(c.EmployerName))
	b.WriteByte(0)
	b.WriteString(strings.TrimSpace(c.URL))
	b.WriteByte(0)
	b.WriteString(strings.TrimSpace(c.Description))
	b.WriteByte(0)
	if c.Salary != nil {
		if c.Salary.From != nil {
			b.WriteString(strconv.Itoa(*c.Salary.From))
		}
		b.WriteByte('-')
		if c.Salary.To != nil {
			b.WriteString(strconv.Itoa(*c.Salary.To))
		}
		b.WriteByte(' ')
		b.WriteString(c.Salary.Currency)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
