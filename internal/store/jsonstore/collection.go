// Package jsonstore keeps each collection as a JSON array file on local disk.
package jsonstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/GregMSThompson/bizledger/internal/errs"
)

// collection guards one JSON file. Readers share the lock; writers hold it
// across the whole read-modify-write so concurrent appends never lose records.
type collection[T any] struct {
	mu   sync.RWMutex
	path string
	log  *slog.Logger
}

func newCollection[T any](dir, name string, log *slog.Logger) *collection[T] {
	return &collection[T]{
		path: filepath.Join(dir, name+".json"),
		log:  log.With("collection", name),
	}
}

func (c *collection[T]) list() ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load()
}

// update loads the records, applies fn and writes the result back.
func (c *collection[T]) update(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	return c.save(records)
}

// load skips array elements that do not decode rather than failing the read.
func (c *collection[T]) load() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to read "+c.path, err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse "+c.path, err)
	}

	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		var rec T
		if err := json.Unmarshal(elem, &rec); err != nil {
			c.log.Warn("skipping malformed record", "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *collection[T]) save(records []T) error {
	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errs.NewDatabaseError("update", "failed to encode "+c.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errs.NewDatabaseError("update", "failed to create data dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return errs.NewDatabaseError("update", "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return errs.NewDatabaseError("update", "failed to write "+c.path, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.NewDatabaseError("update", "failed to write "+c.path, err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return errs.NewDatabaseError("update", "failed to replace "+c.path, err)
	}
	return nil
}
