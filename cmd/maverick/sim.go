package main

import (
	"fmt"

	"github.com/johnlavender474/maverick/assets"
	"github.com/johnlavender474/maverick/config"
	"github.com/johnlavender474/maverick/damage"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/ecs/entity"
	"github.com/johnlavender474/maverick/ecs/system"
	"github.com/johnlavender474/maverick/prefabs"
	"go.uber.org/zap"
)

// simulation is the world plus the system pipeline shared by the simulate
// and play commands.
type simulation struct {
	cfg    *config.Config
	logger *zap.Logger

	world     *ecs.World
	scheduler *ecs.Scheduler
	behaviors *system.BehaviorSystem
	spawns    *system.SpawnSystem
	atlases   *assets.Cache

	step        float64
	accumulator float64
}

func newSimulation(cfg *config.Config, logger *zap.Logger, sink system.SoundSink) *simulation {
	s := &simulation{
		cfg:       cfg,
		logger:    logger,
		world:     ecs.NewWorld(),
		behaviors: system.NewBehaviorSystem(logger),
		spawns:    system.NewSpawnSystem(logger),
		atlases:   assets.NewCache(assets.AtlasLoader(assets.Atlases())),
		step:      cfg.Simulation.Step(),
	}
	physics := system.NewPhysicsSystem(system.PhysicsConfig{
		Gravity: cfg.Simulation.Gravity,
		Floor:   cfg.Simulation.Floor,
		Left:    cfg.Simulation.Left,
		Right:   cfg.Simulation.Right,
	}, logger)

	s.scheduler = ecs.NewScheduler(
		s.behaviors,
		s.spawns,
		physics,
		system.NewDamageSystem(logger),
		system.NewTTLSystem(),
		system.NewAnimationSystem(s.atlases, logger),
		system.NewAudioSystem(sink),
	)
	return s
}

// loadEnemy compiles an enemy prefab and installs its behavior.
func (s *simulation) loadEnemy(name string) (*prefabs.EnemySpec, error) {
	spec, err := prefabs.LoadEnemySpec(name)
	if err != nil {
		return nil, err
	}
	def, err := system.CompileBehavior(spec)
	if err != nil {
		return nil, err
	}
	s.behaviors.SetDef(def)
	return spec, nil
}

// spawnEnemy places an enemy standing on the floor at x.
func (s *simulation) spawnEnemy(name string, x float64) (ecs.Entity, error) {
	spec, err := s.loadEnemy(name)
	if err != nil {
		return 0, err
	}
	return entity.NewEnemy(s.world, spec, x, s.groundY(spec.Collider.Height))
}

// spawnTarget places a dummy that takes every known projectile kind.
func (s *simulation) spawnTarget(x float64, faction string) (ecs.Entity, error) {
	names, err := prefabs.ProjectileNames()
	if err != nil {
		return 0, err
	}
	var kinds []damage.Kind
	for _, name := range names {
		spec, err := prefabs.LoadProjectileSpec(name)
		if err != nil {
			return 0, err
		}
		kinds = append(kinds, damage.Kind(spec.Kind))
	}
	return entity.NewTarget(s.world, x, s.groundY(24), faction, kinds...)
}

func (s *simulation) groundY(height float64) float64 {
	// The floor segment has a radius of 4.
	return s.cfg.Simulation.Floor - 4 - height/2
}

// advance runs as many fixed steps as frameDt covers, capped by max_steps.
// Leftover time beyond the cap is dropped.
func (s *simulation) advance(frameDt float64) []ecs.Event {
	s.accumulator += frameDt
	var events []ecs.Event
	steps := 0
	for s.accumulator >= s.step && steps < s.cfg.Simulation.MaxSteps {
		events = append(events, s.scheduler.Update(s.world, s.step)...)
		s.accumulator -= s.step
		steps++
	}
	if steps == s.cfg.Simulation.MaxSteps {
		s.accumulator = 0
	}
	return events
}

// reload applies a prefab file change.
func (s *simulation) reload(change prefabs.Change) error {
	switch change.Kind {
	case prefabs.ChangeEnemy:
		spec, err := s.loadEnemy(change.Name)
		if err != nil {
			return err
		}
		table, err := entity.DamageTable(spec)
		if err != nil {
			return err
		}
		ecs.ForEach(s.world, component.BehaviorComponent.Kind(), func(e ecs.Entity, b *component.Behavior) {
			if b.Name != spec.Name {
				return
			}
			if d, ok := ecs.Get(s.world, e, component.DamageableComponent.Kind()); ok {
				d.Table = table
			}
			if q, ok := ecs.Get(s.world, e, component.SoundQueueComponent.Kind()); ok {
				q.Files = spec.Sounds
			}
		})
	case prefabs.ChangeProjectile:
		s.spawns.Invalidate(change.Name)
	case prefabs.ChangeScript:
		s.behaviors.ReloadScript(change.Name)
	case prefabs.ChangeAtlas:
		s.atlases.Purge(change.Name)
	default:
		return fmt.Errorf("unknown change kind %d", change.Kind)
	}
	s.logger.Info("reloaded", zap.String("path", change.Path), zap.String("name", change.Name))
	return nil
}

func logEvent(logger *zap.Logger, evt ecs.Event) {
	fields := []zap.Field{zap.String("type", string(evt.Type)), zap.Stringer("entity", evt.Entity)}
	switch d := evt.Data.(type) {
	case ecs.TransitionData:
		fields = append(fields, zap.String("from", d.From), zap.String("to", d.To))
	case ecs.MarkData:
		fields = append(fields, zap.String("state", d.State), zap.Int("mark", d.Mark))
	case ecs.HitData:
		fields = append(fields, zap.String("kind", d.Kind), zap.Int("amount", d.Amount), zap.Int("health", d.Health))
	case string:
		fields = append(fields, zap.String("name", d))
	}
	logger.Info("event", fields...)
}
