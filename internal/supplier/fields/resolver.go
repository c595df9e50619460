// Package fields resolves logical values out of vendor records whose key
// spelling and casing vary from response to response.
package fields

import (
	"sort"
	"strings"

	"carbroker/pkg/model"
)

type Resolver struct {
	table Table
}

func NewResolver(table Table) *Resolver {
	return &Resolver{table: table}
}

func Default() *Resolver {
	return NewResolver(DefaultTable)
}

// Resolve returns the first present, non-empty value for field: candidate
// keys in priority order first, then any key whose lowercase form contains
// one of the field's topics. Record keys are scanned in sorted order so the
// result does not depend on map iteration.
func (r *Resolver) Resolve(rec model.RawRecord, field Field) (any, bool) {
	_, v, ok := r.lookup(rec, field)
	return v, ok
}

// ResolvedKey reports which record key Resolve would read field from.
func (r *Resolver) ResolvedKey(rec model.RawRecord, field Field) (string, bool) {
	key, _, ok := r.lookup(rec, field)
	return key, ok
}

func (r *Resolver) lookup(rec model.RawRecord, field Field) (string, any, bool) {
	if rec == nil {
		return "", nil, false
	}
	cand, ok := r.table[field]
	if !ok {
		return "", nil, false
	}

	for _, key := range cand.Keys {
		if v, present := rec[key]; present && usable(v, cand.Price) {
			return key, v, true
		}
	}

	if len(cand.Topics) == 0 {
		return "", nil, false
	}
	keys := sortedKeys(rec)
	for _, topic := range cand.Topics {
		for _, key := range keys {
			if !strings.Contains(strings.ToLower(key), topic) {
				continue
			}
			if v := rec[key]; usable(v, cand.Price) {
				return key, v, true
			}
		}
	}
	return "", nil, false
}

func (r *Resolver) String(rec model.RawRecord, field Field) (string, bool) {
	v, ok := r.Resolve(rec, field)
	if !ok {
		return "", false
	}
	return ToString(v), true
}

// StringOr returns the resolved string or fallback when absent.
func (r *Resolver) StringOr(rec model.RawRecord, field Field, fallback string) string {
	if s, ok := r.String(rec, field); ok && s != "" {
		return s
	}
	return fallback
}

func (r *Resolver) ID(rec model.RawRecord, field Field) (string, bool) {
	v, ok := r.Resolve(rec, field)
	if !ok {
		return "", false
	}
	id := ToString(v)
	return id, id != ""
}

func (r *Resolver) Float(rec model.RawRecord, field Field) (float64, bool) {
	v, ok := r.Resolve(rec, field)
	if !ok {
		return 0, false
	}
	return ParseFloat(v)
}

func (r *Resolver) Int(rec model.RawRecord, field Field) (int, bool) {
	f, ok := r.Float(rec, field)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (r *Resolver) IntOr(rec model.RawRecord, field Field, fallback int) int {
	if n, ok := r.Int(rec, field); ok && n > 0 {
		return n
	}
	return fallback
}

// Falsy reports whether field is present and carries a negative sentinel.
func (r *Resolver) Falsy(rec model.RawRecord, field Field) bool {
	v, ok := r.Resolve(rec, field)
	return ok && IsFalsy(v)
}

func usable(v any, price bool) bool {
	if IsEmpty(v) {
		return false
	}
	if price {
		return ParsePrice(v) > 0
	}
	return true
}

func sortedKeys(rec model.RawRecord) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
