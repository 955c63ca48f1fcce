package staging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// held counts live holders per staged path. CleanStale never removes a held
// path or a directory containing one.
var held = &registry{paths: make(map[string]int)}

type registry struct {
	mu    sync.Mutex
	paths map[string]int
}

// Hold marks paths as in use until the returned release func is called. The
// release func is safe to call more than once.
func Hold(paths ...string) (release func()) {
	keys := held.add(paths)
	var once sync.Once
	return func() {
		once.Do(func() { held.drop(keys) })
	}
}

// IsHeld reports whether path, or anything beneath it, is held.
func IsHeld(path string) bool {
	return held.covers(canonical(path))
}

func (r *registry) add(paths []string) []string {
	keys := make([]string, 0, len(paths))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := canonical(p)
		r.paths[key]++
		keys = append(keys, key)
	}
	return keys
}

func (r *registry) drop(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if r.paths[key] <= 1 {
			delete(r.paths, key)
			continue
		}
		r.paths[key]--
	}
}

func (r *registry) covers(path string) bool {
	prefix := path + string(filepath.Separator)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.paths {
		if key == path || strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// entriesUnder returns the top-level entries of dir that contain a held path.
func (r *registry) entriesUnder(dir string) []string {
	dir = canonical(dir)
	seen := make(map[string]struct{})
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key := range r.paths {
		rel, err := filepath.Rel(dir, key)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		top := filepath.Join(dir, strings.SplitN(rel, string(filepath.Separator), 2)[0])
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		out = append(out, top)
	}
	return out
}

// refreshHeld bumps the modification time of held entries in dir so that
// sweeps running in other processes see them as fresh. It returns the entries
// it touched.
func refreshHeld(dir string) []string {
	var touched []string
	t := now()
	for _, entry := range held.entriesUnder(dir) {
		if err := os.Chtimes(entry, t, t); err == nil {
			touched = append(touched, entry)
		}
	}
	return touched
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
