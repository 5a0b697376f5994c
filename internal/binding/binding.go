// Package binding holds the host data widgets and triggers read: named values
// the host updates and the engine polls once per tick.
package binding

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

// Source is a read-only accessor over named values. Version increases
// whenever any value changes, so the host can tell when to re-stage.
type Source interface {
	Lookup(name string) (any, bool)
	Version() uint64
}

// Static is a fixed set of values. Its version never changes.
type Static map[string]any

func (s Static) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

func (Static) Version() uint64 { return 0 }

type entry struct {
	val     any
	version uint64
}

// Store is a concurrency-safe Source that writers update.
type Store struct {
	mu      sync.RWMutex
	vals    map[string]entry
	version uint64
}

func NewStore() *Store {
	return &Store{vals: make(map[string]entry)}
}

// Set stores v under name. Setting an equal value is not a change.
func (s *Store) Set(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.vals[name]; ok && same(old.val, v) {
		return
	}
	s.version++
	s.vals[name] = entry{val: v, version: s.version}
}

func (s *Store) Lookup(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vals[name]
	return e.val, ok
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// VersionOf returns the highest version among names, 0 if none is set.
func (s *Store) VersionOf(names ...string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var v uint64
	for _, n := range names {
		v = max(v, s.vals[n].version)
	}
	return v
}

// Names returns the sorted names currently set.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vals))
	for n := range s.vals {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

func same(a, b any) bool {
	switch a.(type) {
	case string, bool, float64, int, int64:
		return a == b
	}
	return false
}

// Placeholders returns the names referenced as {name} in template.
func Placeholders(template string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}

// Expand replaces every {name} in template with its value from src. Unknown
// names are left as written.
func Expand(template string, src Source) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		v, ok := src.Lookup(m[1 : len(m)-1])
		if !ok {
			return m
		}
		return Format(v)
	})
}

// Format renders a value for display.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
