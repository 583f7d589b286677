package system

import (
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"go.uber.org/zap"
)

// DamageSystem negotiates queued hits against each entity's damage table.
type DamageSystem struct {
	logger *zap.Logger
}

func NewDamageSystem(logger *zap.Logger) *DamageSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DamageSystem{logger: logger.Named("damage")}
}

func (s *DamageSystem) Update(w *ecs.World, _ float64) {
	ecs.ForEach(w, component.HitQueueComponent.Kind(), func(e ecs.Entity, q *component.HitQueue) {
		hits := q.Hits
		q.Hits = nil
		health, ok := ecs.Get(w, e, component.HealthComponent.Kind())
		if !ok {
			return
		}
		table, _ := ecs.Get(w, e, component.DamageableComponent.Kind())

		for _, hit := range hits {
			if invulnerable(w, e) {
				w.Events().Push(ecs.Event{Type: ecs.EventDeflect, Entity: e, Data: ecs.HitData{Kind: string(hit.Kind), Health: health.Current}})
				continue
			}

			var amount int
			if table != nil {
				amount, _ = table.Table.Negotiate(hit.Kind, hit.Attrs)
			}
			health.Current -= amount
			if health.Current < 0 {
				health.Current = 0
			}
			s.logger.Debug("hit", zap.Stringer("entity", e), zap.String("kind", string(hit.Kind)), zap.Int("amount", amount), zap.Int("health", health.Current))
			w.Events().Push(ecs.Event{Type: ecs.EventHit, Entity: e, Data: ecs.HitData{Kind: string(hit.Kind), Amount: amount, Health: health.Current}})

			if !health.Alive() {
				w.Events().Push(ecs.Event{Type: ecs.EventDeath, Entity: e})
				w.DestroyEntity(e)
				return
			}
		}
	})
}

func invulnerable(w *ecs.World, e ecs.Entity) bool {
	if ecs.Has(w, e, component.InvulnerableComponent.Kind()) {
		return true
	}
	b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind())
	return ok && b.Invulnerable
}
