package cache

import (
	"encoding/gob"
	"errors"
	"io"
	"time"
)

// dumpVersion tags the diagnostic stream format.
const dumpVersion = 1

// EntryMeta describes one live entry in a diagnostic dump. Values are
// deliberately absent: they are opaque payloads and the dump is a
// debugging aid, not a persistence format (the cache is non-durable).
type EntryMeta struct {
	Key       string
	Size      int64
	ExpiresAt int64 // unix nanos, 0 = never
}

// DumpTo gob-encodes the metadata of every unexpired entry to w, in
// MRU-to-LRU order. The read lock is held for the whole pass, so this
// is an operator tool for inspection, not something for the hot path.
func (s *Store) DumpTo(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(dumpVersion); err != nil {
		return err
	}

	now := time.Now().UnixNano()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for elem := s.ll.Front(); elem != nil; elem = elem.Next() {
		ent := elem.Value.(*entry)
		if ent.expired(now) {
			continue
		}
		meta := EntryMeta{Key: ent.key, Size: ent.size, ExpiresAt: ent.expiresAt}
		if err := enc.Encode(&meta); err != nil {
			return err
		}
	}
	return nil
}

// ReadDump decodes a stream produced by DumpTo.
func ReadDump(r io.Reader) ([]EntryMeta, error) {
	dec := gob.NewDecoder(r)

	var version int
	if err := dec.Decode(&version); err != nil {
		return nil, err
	}
	if version != dumpVersion {
		return nil, errors.New("unsupported dump version")
	}

	var out []EntryMeta
	for {
		var meta EntryMeta
		if err := dec.Decode(&meta); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, meta)
	}
}
