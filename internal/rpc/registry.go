package rpc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry maps handles to callables and variable names to their accessor
// handles. It is safe for concurrent binding and lookup.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Callable
	vars    map[string]VarEntry
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*Callable),
		vars:    make(map[string]VarEntry),
	}
}

// Bind wraps fn with NewCallable and registers it under handle.
func (r *Registry) Bind(handle string, fn any) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	c, err := NewCallable(fn)
	if err != nil {
		return fmt.Errorf("rpc: bind %s: %w", handle, err)
	}
	return r.Register(handle, c)
}

// Register stores c under handle. An existing binding is replaced.
func (r *Registry) Register(handle string, c *Callable) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	if c == nil {
		return fmt.Errorf("%w: nil callable for %s", ErrNotFunc, handle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(handle, c)
	return nil
}

func (r *Registry) put(handle string, c *Callable) {
	if _, ok := r.handles[handle]; ok {
		log.Warn().Str("handle", handle).Stringer("signature", c.Signature()).Msg("rpc: handle rebound")
	}
	r.handles[handle] = c
}

// bindVar registers the accessors and records the name in one critical
// section. Rebinding a name replaces its var entry only; accessor handles
// installed by an earlier binding stay bound, like any other handle.
func (r *Registry) bindVar(name string, getter, setter *Callable) VarEntry {
	entry := VarEntry{Name: name}
	r.mu.Lock()
	defer r.mu.Unlock()

	if getter != nil {
		h := GetterHandle(name)
		r.put(h, getter)
		entry.Getter = &h
	}
	if setter != nil {
		h := SetterHandle(name)
		r.put(h, setter)
		entry.Setter = &h
	}
	r.vars[name] = entry
	log.Debug().Str("var", name).Bool("getter", getter != nil).Bool("setter", setter != nil).Msg("rpc: variable bound")
	return entry
}

// Lookup returns the callable bound under handle.
func (r *Registry) Lookup(handle string) (*Callable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.handles[handle]
	return c, ok
}

// Handles returns every bound handle in sorted order.
func (r *Registry) Handles() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.handles))
	for h := range r.handles {
		out = append(out, h)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Vars returns every bound variable sorted by name.
func (r *Registry) Vars() []VarEntry {
	r.mu.RLock()
	out := make([]VarEntry, 0, len(r.vars))
	for _, v := range r.vars {
		out = append(out, v)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of bound handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
