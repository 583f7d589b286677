package system

import (
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
)

// TTLSystem counts TTL components down and destroys entities whose time
// has run out. It also expires timed invulnerability.
type TTLSystem struct{}

func NewTTLSystem() *TTLSystem {
	return &TTLSystem{}
}

func (s *TTLSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.TTLComponent.Kind(), func(e ecs.Entity, ttl *component.TTL) {
		ttl.Seconds -= dt
		if ttl.Seconds <= 0 {
			w.DestroyEntity(e)
		}
	})

	ecs.ForEach(w, component.InvulnerableComponent.Kind(), func(e ecs.Entity, inv *component.Invulnerable) {
		if inv.Seconds <= 0 {
			return
		}
		inv.Seconds -= dt
		if inv.Seconds <= 0 {
			ecs.Remove(w, e, component.InvulnerableComponent.Kind())
		}
	})
}
