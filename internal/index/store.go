package index

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyPrefix   = "idx/"
	metaKey     = keyPrefix + "meta"
	entryPrefix = keyPrefix + "entry/"
)

// errCorrupt marks a store whose metadata and entries disagree
var errCorrupt = errors.New("index store is inconsistent")

type meta struct {
	Count     int `json:"count"`
	Dimension int `json:"dimension"`
}

type entry struct {
	ClaimID   string    `json:"claim_id"`
	ClaimText string    `json:"claim_text"`
	Vector    []float32 `json:"vector"`
}

func entryKey(pos int) []byte {
	return []byte(fmt.Sprintf("%s%020d", entryPrefix, pos))
}

// persist writes the entry at pos and the new count in one transaction
func persist(db *badger.DB, pos int, e entry, dim int) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	m, err := json.Marshal(meta{Count: pos + 1, Dimension: dim})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entryKey(pos), value); err != nil {
			return err
		}
		return txn.Set([]byte(metaKey), m)
	})
}

// load reads every entry in position order and checks it against the metadata
func load(db *badger.DB, dim int) ([]entry, error) {
	var (
		m       *meta
		entries []entry
	)
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			m = &meta{}
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, m) }); err != nil {
				return fmt.Errorf("%w: meta: %v", errCorrupt, err)
			}
		}

		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: []byte(entryPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e entry
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &e) }); err != nil {
				return fmt.Errorf("%w: entry %s: %v", errCorrupt, it.Item().Key(), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m == nil {
		if len(entries) > 0 {
			return nil, fmt.Errorf("%w: %d entries without metadata", errCorrupt, len(entries))
		}
		return nil, nil
	}
	if m.Count != len(entries) {
		return nil, fmt.Errorf("%w: metadata count %d, found %d entries", errCorrupt, m.Count, len(entries))
	}
	if m.Dimension != dim && len(entries) > 0 {
		return nil, fmt.Errorf("%w: dimension %d, configured %d", errCorrupt, m.Dimension, dim)
	}
	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("%w: entry %d has dimension %d", errCorrupt, i, len(e.Vector))
		}
	}
	return entries, nil
}

// reset wipes every index key and writes empty metadata
func reset(db *badger.DB, dim int) error {
	if err := db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("drop index keys: %w", err)
	}
	m, err := json.Marshal(meta{Count: 0, Dimension: dim})
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), m)
	})
}
