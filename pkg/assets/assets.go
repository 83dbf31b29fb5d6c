// Package assets holds the fallback table of bundled pictograms, keyed by file
// name and stored as data URIs. The inliner consults it when an image cannot be
// fetched or decoded.
package assets

import (
	"embed"
	"encoding/base64"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed pictograms/*.svg
var bundled embed.FS

var extMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// Table maps asset keys to data URIs. The first entry added for a key wins.
type Table struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]string)}
}

// Add stores a data URI under key unless the key is already present.
// It reports whether the entry was stored.
func (t *Table) Add(key, dataURI string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; ok {
		return false
	}
	t.entries[key] = dataURI
	return true
}

// Lookup returns the data URI for key.
func (t *Table) Lookup(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	uri, ok := t.entries[key]
	return uri, ok
}

// Keys returns the keys sorted case-insensitively.
func (t *Table) Keys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// LoadFS walks root in fsys and adds every image file under its base name.
// Files with other extensions are skipped. It returns the number of entries added.
func (t *Table) LoadFS(fsys fs.FS, root string) (int, error) {
	added := 0
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		mime, ok := extMIME[strings.ToLower(path.Ext(p))]
		if !ok {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", p, err)
		}
		if t.Add(path.Base(p), DataURI(mime, data)) {
			added++
		}
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("load assets from %s: %w", root, err)
	}
	return added, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var defaultTable = sync.OnceValue(func() *Table {
	t := NewTable()
	if _, err := t.LoadFS(bundled, "pictograms"); err != nil {
		panic(err)
	}
	return t
})

// Default returns the process-wide table of bundled pictograms.
func Default() *Table {
	return defaultTable()
}
