package types

import (
	"encoding/json"
	"fmt"
	"time"
)

/*
record is the persisted form of a CacheEntry.

Wire format:
------------
	{"value": <any>, "createdAt": <epoch ms>, "ttl": <ms>}

The key is NOT part of the record. It lives in the persistent tier key.
*/
type record[V any] struct {
	Value     V     `json:"value"`
	CreatedAt int64 `json:"createdAt"`
	TTL       int64 `json:"ttl"`
}

// EncodeRecord serializes an entry into its persisted JSON form.
func EncodeRecord[V any](ent *CacheEntry[V]) (string, error) {
	rec := record[V]{
		Value: ent.Value,
		TTL:   ent.TTL.Milliseconds(),
	}
	if !ent.CreatedAt.IsZero() {
		rec.CreatedAt = ent.CreatedAt.UnixMilli()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", ent.Key, err)
	}
	return string(b), nil
}

/*
DecodeRecord parses a persisted record back into an entry for key.

Any failure is wrapped in ErrCorruptRecord. A record with a missing or zero
createdAt decodes fine but carries a zero CreatedAt, which is never valid.
*/
func DecodeRecord[V any](key, raw string) (*CacheEntry[V], error) {
	var rec record[V]
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCorruptRecord, key, err)
	}

	ent := &CacheEntry[V]{
		Key:   key,
		Value: rec.Value,
		Stamp: Stamp{TTL: time.Duration(rec.TTL) * time.Millisecond},
	}
	if rec.CreatedAt > 0 {
		ent.CreatedAt = time.UnixMilli(rec.CreatedAt)
	}
	return ent, nil
}

// DecodeStamp reads only the timing fields of a record, whatever its value type.
func DecodeStamp(key, raw string) (Stamp, error) {
	ent, err := DecodeRecord[json.RawMessage](key, raw)
	if err != nil {
		return Stamp{}, err
	}
	return ent.Stamp, nil
}
