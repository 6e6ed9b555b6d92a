package storage

import (
	"errors"
	"sort"
)

// Overlay buffers writes on top of a base database. Reads observe pending
// writes first. Commit flushes everything through one batch; Discard drops it.
//
// Overlay is not safe for concurrent use.
type Overlay struct {
	base    Database
	pending map[string][]byte
	deleted map[string]struct{}
}

// NewOverlay wraps the supplied base database.
func NewOverlay(base Database) *Overlay {
	return &Overlay{
		base:    base,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := o.deleted[k]; ok {
		return nil, ErrNotFound
	}
	if value, ok := o.pending[k]; ok {
		return append([]byte(nil), value...), nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	_, err := o.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (o *Overlay) Put(key []byte, value []byte) error {
	k := string(key)
	delete(o.deleted, k)
	o.pending[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	delete(o.pending, k)
	o.deleted[k] = struct{}{}
	return nil
}

// Write stages the batch in the overlay rather than the base database.
func (o *Overlay) Write(batch *Batch) error {
	if batch == nil {
		return nil
	}
	for _, op := range batch.ops {
		if op.delete {
			_ = o.Delete(op.key)
			continue
		}
		_ = o.Put(op.key, op.value)
	}
	return nil
}

// Dirty reports whether the overlay holds uncommitted changes.
func (o *Overlay) Dirty() bool {
	return len(o.pending) > 0 || len(o.deleted) > 0
}

// Commit writes all staged changes to the base database atomically and resets
// the overlay. Keys are applied in sorted order so that identical change sets
// always produce identical batches.
func (o *Overlay) Commit() error {
	if !o.Dirty() {
		return nil
	}
	keys := make([]string, 0, len(o.pending)+len(o.deleted))
	for k := range o.pending {
		keys = append(keys, k)
	}
	for k := range o.deleted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := new(Batch)
	for _, k := range keys {
		if value, ok := o.pending[k]; ok {
			batch.Put([]byte(k), value)
			continue
		}
		batch.Delete([]byte(k))
	}
	if err := o.base.Write(batch); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops all staged changes.
func (o *Overlay) Discard() {
	o.pending = make(map[string][]byte)
	o.deleted = make(map[string]struct{})
}

// Close is a no-op; the base database is owned by the caller.
func (o *Overlay) Close() {}
