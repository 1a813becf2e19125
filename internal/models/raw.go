package models

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var ErrMissingIdentity = errors.New("record has no world id")

// RawRecord is a world object as returned by the fetch collaborator.
type RawRecord map[string]any

// fieldAliases maps every typed field to the keys it may appear under, including
// the localized column names used by exported tables. First match wins.
var fieldAliases = map[string][]string{
	"id":                  {"id", "worldId", "世界ID"},
	"name":                {"name", "世界名稱"},
	"timestamp":           {"timestamp"},
	"visits":              {"visits", "瀏覽人次"},
	"favorites":           {"favorites", "收藏次數"},
	"heat":                {"heat", "熱度"},
	"popularity":          {"popularity", "人氣"},
	"size":                {"size", "大小"},
	"tags":                {"tags"},
	"createdAt":           {"created_at", "createdAt"},
	"updatedAt":           {"updated_at", "updatedAt", "最後更新"},
	"labsPublicationDate": {"labsPublicationDate"},
	"publicationDate":     {"publicationDate", "發布日期"},
}

func (r RawRecord) lookup(field string) (any, bool) {
	for _, key := range fieldAliases[field] {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r RawRecord) str(field string) string {
	v, ok := r.lookup(field)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// number reads a non-negative numeric field. Absent or malformed values are 0.
func (r RawRecord) number(field string) float64 {
	v, ok := r.lookup(field)
	if !ok {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// SnapshotFromRaw converts a fetched record into a typed snapshot. A record
// without its own timestamp is stamped with fetchedAt.
func SnapshotFromRaw(r RawRecord, fetchedAt time.Time) (Snapshot, error) {
	id := r.str("id")
	if id == "" {
		return Snapshot{}, ErrMissingIdentity
	}

	ts := fetchedAt.UTC().Unix()
	if v, ok := r.lookup("timestamp"); ok {
		if n, err := cast.ToInt64E(v); err == nil && n > 0 {
			ts = n
		}
	}

	var tags []string
	if v, ok := r.lookup("tags"); ok {
		tags, _ = cast.ToStringSliceE(v)
	}

	return Snapshot{
		ID:         id,
		Name:       r.str("name"),
		Timestamp:  ts,
		Visits:     r.number("visits"),
		Favorites:  r.number("favorites"),
		Heat:       r.number("heat"),
		Popularity: r.number("popularity"),
		Size:       r.number("size"),
		Tags:       tags,
		LifecycleDates: LifecycleDates{
			CreatedAt:           r.str("createdAt"),
			UpdatedAt:           r.str("updatedAt"),
			LabsPublicationDate: r.str("labsPublicationDate"),
			PublicationDate:     r.str("publicationDate"),
		},
	}, nil
}

// SnapshotsFromRaw converts a batch, skipping records that have no identity.
// It returns the converted snapshots and the number of skipped records.
func SnapshotsFromRaw(batch []RawRecord, fetchedAt time.Time) ([]Snapshot, int) {
	out := make([]Snapshot, 0, len(batch))
	skipped := 0
	for _, r := range batch {
		s, err := SnapshotFromRaw(r, fetchedAt)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, skipped
}
