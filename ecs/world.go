package ecs

import (
	"sort"

	"github.com/johnlavender474/maverick/ecs/component"
)

// World owns entities and their components.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	events   EventQueue
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]*SparseSet)}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes all components of e and invalidates the handle.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	id := int(e.id())
	for _, s := range w.stores {
		s.Remove(id)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.count
}

// Entities returns every live entity in index order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, w.entities.count)
	for i := range w.entities.gen {
		if e, ok := w.entities.entity(entityID(i + 1)); ok {
			out = append(out, e)
		}
	}
	return out
}

// AddComponent stores v for e, replacing any previous value.
func (w *World) AddComponent(e Entity, id component.ComponentID, v any) error {
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if v == nil {
		return component.ErrNilComponent
	}
	if !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	w.store(id).Set(int(e.id()), v)
	return nil
}

// GetComponent returns the stored value for e.
func (w *World) GetComponent(e Entity, id component.ComponentID) (any, bool) {
	if !w.entities.isAlive(e) {
		return nil, false
	}
	s, ok := w.stores[id]
	if !ok {
		return nil, false
	}
	v := s.Get(int(e.id()))
	return v, v != nil
}

// HasComponent reports whether e has a component of the given kind.
func (w *World) HasComponent(e Entity, id component.ComponentID) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	return w.stores[id].Has(int(e.id()))
}

// RemoveComponent deletes the component of the given kind from e.
func (w *World) RemoveComponent(e Entity, id component.ComponentID) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	return w.stores[id].Remove(int(e.id()))
}

// Query returns the live entities that have every listed component, in
// index order so iteration is deterministic.
func (w *World) Query(ids ...component.ComponentID) []Entity {
	if len(ids) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(ids))
	for _, id := range ids {
		s, ok := w.stores[id]
		if !ok || s.Len() == 0 {
			return nil
		}
		sets = append(sets, s)
	}

	candidates := Intersect(sets...)
	out := make([]Entity, 0, len(candidates))
	for _, id := range candidates {
		if e, ok := w.entities.entity(entityID(id)); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out
}

// First returns the first entity matching the query.
func (w *World) First(ids ...component.ComponentID) (Entity, bool) {
	matches := w.Query(ids...)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0], true
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	return &w.events
}

func (w *World) store(id component.ComponentID) *SparseSet {
	s, ok := w.stores[id]
	if !ok {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}
