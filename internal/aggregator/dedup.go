package aggregator

import (
	"sync_service/internal/domain/models"
)

// Deduplicator объединяет записи разных провайдеров, описывающие одну вакансию.
// Записи связываются, если совпадает первичный ключ (source, external_id) или составной (title, employer, url)
type Deduplicator struct {
	priority map[string]int // ранг провайдера при равной полноте, меньше - важнее
}

// NewDeduplicator создаёт дедупликатор с порядком провайдеров для разрешения ничьих.
// Провайдеры вне списка идут после перечисленных; при пустом списке побеждает первая встреченная запись
func NewDeduplicator(providerPriority []string) *Deduplicator {
	rank := make(map[string]int, len(providerPriority))
	for i, p := range providerPriority {
		if _, dup := rank[p]; !dup {
			rank[p] = i
		}
	}
	return &Deduplicator{priority: rank}
}

// Deduplicate возвращает записи без дублей в порядке первого появления группы и число отброшенных записей.
// Повторный вызов на результате ничего не меняет
func (d *Deduplicator) Deduplicate(records []models.CandidateRecord) ([]models.CandidateRecord, int) {
	if len(records) == 0 {
		return []models.CandidateRecord{}, 0
	}

	uf := newUnionFind(len(records))
	seen := make(map[models.IdentityKey]int, len(records)*2)
	link := func(key models.IdentityKey, i int) {
		if j, ok := seen[key]; ok {
			uf.union(j, i)
			return
		}
		seen[key] = i
	}
	for i, rec := range records {
		if key, ok := rec.PrimaryKey(); ok {
			link(key, i)
		}
		link(rec.FallbackKey(), i)
	}

	// группы в порядке первого появления
	groups := make(map[int][]int)
	var order []int
	for i := range records {
		root := uf.find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], i)
	}

	out := make([]models.CandidateRecord, 0, len(order))
	for _, root := range order {
		out = append(out, d.merge(records, groups[root]))
	}
	return out, len(records) - len(out)
}

// merge выбирает победителя группы. Если у победителя нет внешнего id, он берёт id участника группы,
// чтобы ключ записи в хранилище не зависел от того, какой провайдер победил
func (d *Deduplicator) merge(records []models.CandidateRecord, members []int) models.CandidateRecord {
	winner := records[members[0]]
	for _, idx := range members[1:] {
		if d.better(records[idx], winner) {
			winner = records[idx]
		}
	}

	if _, ok := winner.PrimaryKey(); !ok {
		for _, idx := range members {
			if _, ok := records[idx].PrimaryKey(); ok {
				winner.Source = records[idx].Source
				winner.ExternalID = records[idx].ExternalID
				break
			}
		}
	}
	return winner
}

// better: заполненная зарплата важнее пустой, при равенстве решает приоритет провайдеров
func (d *Deduplicator) better(candidate, current models.CandidateRecord) bool {
	if candidate.HasSalary() != current.HasSalary() {
		return candidate.HasSalary()
	}
	return d.rank(candidate.Source) < d.rank(current.Source)
}

func (d *Deduplicator) rank(source string) int {
	if r, ok := d.priority[source]; ok {
		return r
	}
	return len(d.priority)
}

// unionFind - система непересекающихся множеств со сжатием путей
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union подвешивает больший индекс к меньшему, корень группы - её первый элемент
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
