package entity

import (
	"fmt"
	"image/color"

	"github.com/johnlavender474/maverick/damage"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/samber/oops"
)

// NewEnemy creates an actor from an enemy prefab centered on (x, y). The
// behavior loop is built by the behavior system on its first update.
func NewEnemy(w *ecs.World, spec *prefabs.EnemySpec, x, y float64) (ecs.Entity, error) {
	if spec == nil {
		return 0, fmt.Errorf("enemy: nil prefab")
	}
	table, err := DamageTable(spec)
	if err != nil {
		return 0, fmt.Errorf("enemy %s: %w", spec.Name, err)
	}

	faction := spec.Faction
	if faction == "" {
		faction = component.FactionEnemy
	}

	entity := w.CreateEntity()

	if faction == component.FactionEnemy {
		if err := ecs.Add(w, entity, component.EnemyTagComponent.Kind(), &component.EnemyTag{}); err != nil {
			return 0, fmt.Errorf("enemy: add enemy tag: %w", err)
		}
	}

	if err := ecs.Add(w, entity, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}); err != nil {
		return 0, fmt.Errorf("enemy: add transform: %w", err)
	}

	if err := ecs.Add(w, entity, component.VelocityComponent.Kind(), &component.Velocity{}); err != nil {
		return 0, fmt.Errorf("enemy: add velocity: %w", err)
	}

	if err := ecs.Add(w, entity, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:   spec.Collider.Width,
		Height:  spec.Collider.Height,
		Gravity: spec.Gravity,
	}); err != nil {
		return 0, fmt.Errorf("enemy: add physics body: %w", err)
	}

	if err := ecs.Add(w, entity, component.FactionComponent.Kind(), &component.Faction{Name: faction}); err != nil {
		return 0, fmt.Errorf("enemy: add faction: %w", err)
	}

	if err := ecs.Add(w, entity, component.HealthComponent.Kind(), &component.Health{Max: spec.Health, Current: spec.Health}); err != nil {
		return 0, fmt.Errorf("enemy: add health: %w", err)
	}

	if err := ecs.Add(w, entity, component.DamageableComponent.Kind(), &component.Damageable{Table: table}); err != nil {
		return 0, fmt.Errorf("enemy: add damageable: %w", err)
	}

	if err := ecs.Add(w, entity, component.BehaviorComponent.Kind(), &component.Behavior{Name: spec.Name}); err != nil {
		return 0, fmt.Errorf("enemy: add behavior: %w", err)
	}

	atlas := spec.Atlas
	if atlas == "" {
		atlas = spec.Name
	}
	if err := ecs.Add(w, entity, component.AnimationComponent.Kind(), &component.Animation{Atlas: atlas, Key: spec.Animation}); err != nil {
		return 0, fmt.Errorf("enemy: add animation: %w", err)
	}

	if err := ecs.Add(w, entity, component.SoundQueueComponent.Kind(), &component.SoundQueue{Files: spec.Sounds}); err != nil {
		return 0, fmt.Errorf("enemy: add sound queue: %w", err)
	}

	if err := ecs.Add(w, entity, component.TintComponent.Kind(), &component.Tint{Color: specColor(spec.Color, color.White)}); err != nil {
		return 0, fmt.Errorf("enemy: add tint: %w", err)
	}

	return entity, nil
}

// DamageTable compiles the damage rules of an enemy prefab.
func DamageTable(spec *prefabs.EnemySpec) (*damage.Table, error) {
	rules := make(map[damage.Kind]damage.Rule, len(spec.Damage))
	for kind, r := range spec.Damage {
		rules[damage.Kind(kind)] = damage.Rule{
			Fixed:     r.Fixed,
			Scale:     r.Scale,
			Kill:      r.Kill,
			Immune:    r.Immune,
			PerCharge: r.PerCharge,
		}
	}
	table, err := damage.NewTable(rules)
	if err != nil {
		return nil, oops.In("entity").With("enemy", spec.Name).Wrap(err)
	}
	return table, nil
}

func specColor(c *prefabs.YAMLColor, fallback color.Color) color.Color {
	if c == nil || c.Color == nil {
		return fallback
	}
	return c.Color
}
