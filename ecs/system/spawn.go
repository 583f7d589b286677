package system

import (
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/ecs/entity"
	"github.com/johnlavender474/maverick/prefabs"
	"go.uber.org/zap"
)

// SpawnSystem turns queued spawn requests into projectile entities.
type SpawnSystem struct {
	logger *zap.Logger
	specs  map[string]*prefabs.ProjectileSpec
}

func NewSpawnSystem(logger *zap.Logger) *SpawnSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpawnSystem{logger: logger.Named("spawn"), specs: make(map[string]*prefabs.ProjectileSpec)}
}

// Invalidate drops a cached projectile prefab so the next spawn reloads it.
func (s *SpawnSystem) Invalidate(name string) {
	delete(s.specs, name)
}

func (s *SpawnSystem) spec(name string) (*prefabs.ProjectileSpec, error) {
	if spec, ok := s.specs[name]; ok {
		return spec, nil
	}
	spec, err := prefabs.LoadProjectileSpec(name)
	if err != nil {
		return nil, err
	}
	s.specs[name] = spec
	return spec, nil
}

func (s *SpawnSystem) Update(w *ecs.World, _ float64) {
	ecs.ForEach(w, component.SpawnQueueComponent.Kind(), func(owner ecs.Entity, q *component.SpawnQueue) {
		requests := q.Requests
		q.Requests = nil

		faction := component.FactionEnemy
		if f, ok := ecs.Get(w, owner, component.FactionComponent.Kind()); ok {
			faction = f.Name
		}

		for _, req := range requests {
			spec, err := s.spec(req.Projectile)
			if err != nil {
				s.logger.Error("load projectile", zap.String("projectile", req.Projectile), zap.Error(err))
				continue
			}
			e, err := entity.NewProjectile(w, spec, entity.ProjectileOpts{
				X:       req.X,
				Y:       req.Y,
				Angle:   req.Angle,
				Speed:   req.Speed,
				Faction: faction,
				Owner:   owner,
			})
			if err != nil {
				s.logger.Error("spawn projectile", zap.String("projectile", req.Projectile), zap.Error(err))
				continue
			}
			w.Events().Push(ecs.Event{Type: ecs.EventSpawn, Entity: e, Data: req.Projectile})
		}
	})
}
