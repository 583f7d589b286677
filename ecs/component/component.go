// Package component holds the data attached to enemies, projectiles and
// targets. Every type registers a kind once at init; systems look
// components up through that kind.
package component

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID indexes a component store in the world. Zero is never
// assigned.
type ComponentID uint32

var lastID atomic.Uint32

// ComponentKind ties a Go type to its store.
type ComponentKind[T any] struct {
	id ComponentID
}

func (k ComponentKind[T]) ID() ComponentID { return k.id }

// Valid reports whether the kind was registered.
func (k ComponentKind[T]) Valid() bool { return k.id != 0 }

// ComponentHandle is the package-level registration of T, e.g.
// TransformComponent.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

// NewComponent registers T under a fresh id. Call it once per type from a
// package var.
func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: ComponentKind[T]{id: ComponentID(lastID.Add(1))}}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] { return h.kind }
