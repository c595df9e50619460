package normalizer

import (
	"carbroker/internal/supplier/fields"
	"carbroker/pkg/model"
)

// GroupIndex maps a vendor group id to its catalogue entry. Ids are stored
// under both their raw string form and their canonical numeric form, since
// availability and group payloads disagree on the type.
type GroupIndex map[string]model.GroupMetadata

// Lookup accepts the group id as it arrived (string, float64, json.Number).
func (g GroupIndex) Lookup(id any) (model.GroupMetadata, bool) {
	if len(g) == 0 || fields.IsEmpty(id) {
		return model.GroupMetadata{}, false
	}
	if meta, ok := g[fields.ToString(id)]; ok {
		return meta, true
	}
	meta, ok := g[fields.CanonicalID(id)]
	return meta, ok
}

// List returns each group once, in no particular order.
func (g GroupIndex) List() []model.GroupMetadata {
	seen := make(map[string]struct{}, len(g))
	out := make([]model.GroupMetadata, 0, len(g))
	for _, meta := range g {
		if _, dup := seen[meta.GroupID]; dup {
			continue
		}
		seen[meta.GroupID] = struct{}{}
		out = append(out, meta)
	}
	return out
}

// BuildGroupIndex turns raw group catalogue records into an index. Records
// without a group id are skipped.
func BuildGroupIndex(records []model.RawRecord) GroupIndex {
	return buildGroupIndex(fields.Default(), records)
}

func buildGroupIndex(r *fields.Resolver, records []model.RawRecord) GroupIndex {
	index := make(GroupIndex, len(records)*2)
	for _, rec := range records {
		raw, ok := r.Resolve(rec, fields.GroupID)
		if !ok {
			continue
		}
		meta := model.GroupMetadata{
			GroupID:   fields.CanonicalID(raw),
			Brand:     r.StringOr(rec, fields.Brand, ""),
			Model:     r.StringOr(rec, fields.GroupModel, ""),
			Category:  r.StringOr(rec, fields.GroupName, ""),
			ImagePath: r.StringOr(rec, fields.ImagePath, ""),
		}
		index[fields.ToString(raw)] = meta
		index[meta.GroupID] = meta
	}
	return index
}
