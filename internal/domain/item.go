package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Money - денежная сумма в минимальных единицах валюты (центах).
type Money = int64

// Item ссылается на позицию меню: путь по дереву меню и выбранные модификаторы.
// Используется и как позиция корзины, и как шаблон (item set) в условиях/действиях политик.
type Item struct {
	Path      []string            `json:"path"`                // e.g. ["drinks", "coffee", "latte"]
	Modifiers map[string][]string `json:"modifiers,omitempty"` // группа -> выбранные опции: {"size": ["large"]}
}

// Matches проверяет структурное совпадение с шаблоном.
// Путь шаблона должен быть префиксом пути позиции, а каждая группа модификаторов
// шаблона должна присутствовать в позиции с тем же набором опций.
func (i Item) Matches(pattern Item) bool {
	if len(pattern.Path) > len(i.Path) {
		return false
	}
	for idx, segment := range pattern.Path {
		if i.Path[idx] != segment {
			return false
		}
	}

	for group, options := range pattern.Modifiers {
		selected, ok := i.Modifiers[group]
		if !ok {
			return false
		}
		if !sameOptions(selected, options) {
			return false
		}
	}
	return true
}

// MatchesAny - пустой набор шаблонов означает "любая позиция".
func (i Item) MatchesAny(patterns []Item) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if i.Matches(p) {
			return true
		}
	}
	return false
}

// Equal - полное равенство (используется для слияния одинаковых позиций в корзине).
func (i Item) Equal(other Item) bool {
	return i.Key() == other.Key()
}

// Key возвращает канонический ключ позиции, не зависящий от порядка модификаторов.
// Каждый сегмент пишется с префиксом длины, поэтому ["a/b"] и ["a", "b"] дают разные ключи.
func (i Item) Key() string {
	var b strings.Builder
	writeSegments(&b, 'p', i.Path)

	groups := make([]string, 0, len(i.Modifiers))
	for g := range i.Modifiers {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		opts := append([]string(nil), i.Modifiers[g]...)
		sort.Strings(opts)
		writeSegments(&b, 'g', []string{g})
		writeSegments(&b, 'o', opts)
	}
	return b.String()
}

func writeSegments(b *strings.Builder, kind byte, segments []string) {
	b.WriteByte(kind)
	b.WriteString(strconv.Itoa(len(segments)))
	for _, seg := range segments {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(seg)))
		b.WriteByte(':')
		b.WriteString(seg)
	}
	b.WriteByte(';')
}

func sameOptions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, o := range a {
		seen[o]++
	}
	for _, o := range b {
		if seen[o] == 0 {
			return false
		}
		seen[o]--
	}
	return true
}
