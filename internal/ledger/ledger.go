// Package ledger persists the set of sales orders that have been fully
// manufactured, so they are never processed again after a restart.
//
// The on-disk format is a JSON array of order ids. The file is read once on
// Open and rewritten in full on every mutation.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Ledger is the dedup set of processed order ids.
type Ledger struct {
	path string

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Open loads the ledger at path. A missing file yields an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, ids: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	if len(data) == 0 {
		return l, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
	return l, nil
}

// Path returns the file backing the ledger.
func (l *Ledger) Path() string {
	return l.path
}

// IsProcessed reports whether id is recorded.
func (l *Ledger) IsProcessed(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[id]
	return ok
}

// MarkProcessed records id and persists the ledger. Recording an id that is
// already present does not touch the file.
func (l *Ledger) MarkProcessed(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; ok {
		return nil
	}
	l.ids[id] = struct{}{}
	if err := l.save(); err != nil {
		delete(l.ids, id)
		return err
	}
	return nil
}

// Remove forgets id so the order is picked up again on the next scan.
// It reports whether the id was present.
func (l *Ledger) Remove(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; !ok {
		return false, nil
	}
	delete(l.ids, id)
	if err := l.save(); err != nil {
		l.ids[id] = struct{}{}
		return false, err
	}
	return true, nil
}

// List returns the recorded ids in sorted order.
func (l *Ledger) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked()
}

// Len returns the number of recorded ids.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

func (l *Ledger) sortedLocked() []string {
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// save writes to a temp file in the same directory and renames it over the
// ledger so readers never observe a partial file.
func (l *Ledger) save() error {
	data, err := json.Marshal(l.sortedLocked())
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
