// Пакет relevance — статическая политика отбора записей для уведомлений.
// Filter исключает комитеты из уведомлений (но не из хранилища),
// а множество known-bad подавляет логирование хронически битых записей.
package relevance

import "strings"

// Filter — неизменяемые множества исключённых комитетов и known-bad идентификаторов.
// Безопасен для конкурентного чтения.
type Filter struct {
	excluded map[string]struct{}
	knownBad map[string]struct{}
}

// New создаёт фильтр. Названия комитетов сравниваются без учёта регистра
// и пробелов по краям.
func New(excludedCommittees, knownBadIDs []string) *Filter {
	f := &Filter{
		excluded: make(map[string]struct{}, len(excludedCommittees)),
		knownBad: toSet(knownBadIDs),
	}
	for _, c := range excludedCommittees {
		if key := committeeKey(c); key != "" {
			f.excluded[key] = struct{}{}
		}
	}
	return f
}

// IsIrrelevant сообщает, что комитет входит в множество исключений.
func (f *Filter) IsIrrelevant(committee string) bool {
	if f == nil {
		return false
	}
	_, ok := f.excluded[committeeKey(committee)]
	return ok
}

// IsKnownBad сообщает, что идентификатор входит в список known-bad.
func (f *Filter) IsKnownBad(identity string) bool {
	if f == nil {
		return false
	}
	_, ok := f.knownBad[identity]
	return ok
}

// Excluded возвращает количество исключённых комитетов.
func (f *Filter) Excluded() int {
	if f == nil {
		return 0
	}
	return len(f.excluded)
}

func committeeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// toSet преобразует срез строк в множество.
func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
