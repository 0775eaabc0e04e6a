package rpc

import (
	"fmt"
	"sync"

	"github.com/danmuck/bindrpc/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Var is a readable variable. Load returns a copy of the current value.
type Var[T any] interface {
	Load() T
}

// MutableVar is a variable that may also be assigned remotely.
type MutableVar[T any] interface {
	Var[T]
	Store(T)
}

// Ref exposes *p for reading and writing without synchronization. p must
// outlive every accessor bound over it.
func Ref[T any](p *T) MutableVar[T] {
	return ref[T]{p: p}
}

// ReadOnly exposes *p for reading only.
func ReadOnly[T any](p *T) Var[T] {
	return readOnly[T]{p: p}
}

// Locked exposes *p guarded by mu: Load takes the read lock and Store the
// write lock. Local code touching *p must hold mu as well.
func Locked[T any](p *T, mu *sync.RWMutex) MutableVar[T] {
	return locked[T]{p: p, mu: mu}
}

type ref[T any] struct{ p *T }

func (r ref[T]) Load() T   { return *r.p }
func (r ref[T]) Store(v T) { *r.p = v }

type readOnly[T any] struct{ p *T }

func (r readOnly[T]) Load() T { return *r.p }

type locked[T any] struct {
	p  *T
	mu *sync.RWMutex
}

func (l locked[T]) Load() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.p
}

func (l locked[T]) Store(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.p = v
}

// VarEntry lists the accessor handles bound for one variable name.
type VarEntry = protocol.VarEntry

// BindVar synthesizes get_<name> and/or set_<name> for v according to
// access and records them under name. Requesting AccessWrite on a variable
// that is not a MutableVar fails with ErrReadOnlyVar and binds nothing.
func BindVar[T any](r *Registry, name string, v Var[T], access Access) (VarEntry, error) {
	if name == "" {
		return VarEntry{}, ErrEmptyHandle
	}
	if v == nil {
		return VarEntry{}, fmt.Errorf("%w: %s", ErrNilVar, name)
	}

	var getter, setter *Callable
	if access.Has(AccessWrite) {
		mv, ok := v.(MutableVar[T])
		if !ok {
			log.Warn().Str("var", name).Stringer("access", access).Msg("rpc: write access refused for read-only variable")
			return VarEntry{}, fmt.Errorf("%w: %s", ErrReadOnlyVar, name)
		}
		c, err := Proc1(func(x T) error {
			mv.Store(x)
			return nil
		})
		if err != nil {
			return VarEntry{}, fmt.Errorf("rpc: var %s: %w", name, err)
		}
		setter = c
	}
	if access.Has(AccessRead) {
		c, err := Func0(func() (T, error) {
			return v.Load(), nil
		})
		if err != nil {
			return VarEntry{}, fmt.Errorf("rpc: var %s: %w", name, err)
		}
		getter = c
	}
	return r.bindVar(name, getter, setter), nil
}
