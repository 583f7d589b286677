package entity

import (
	"fmt"
	"image/color"

	"github.com/johnlavender474/maverick/damage"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
)

// TargetHealth is large enough that a target outlives any simulation.
const TargetHealth = 1 << 20

// NewTarget creates a stationary practice dummy that enemies aim at. It
// takes the base amount of every listed damager kind.
func NewTarget(w *ecs.World, x, y float64, faction string, kinds ...damage.Kind) (ecs.Entity, error) {
	if faction == "" {
		faction = component.FactionPlayer
	}
	table, err := damage.NewTable(nil)
	if err != nil {
		return 0, err
	}
	for _, kind := range kinds {
		table.Register(kind, func(a damage.Attributes) int { return a.Amount })
	}

	entity := w.CreateEntity()

	if err := ecs.Add(w, entity, component.TargetTagComponent.Kind(), &component.TargetTag{}); err != nil {
		return 0, fmt.Errorf("target: add target tag: %w", err)
	}

	if err := ecs.Add(w, entity, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}); err != nil {
		return 0, fmt.Errorf("target: add transform: %w", err)
	}

	if err := ecs.Add(w, entity, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Width: 16, Height: 24}); err != nil {
		return 0, fmt.Errorf("target: add physics body: %w", err)
	}

	if err := ecs.Add(w, entity, component.VelocityComponent.Kind(), &component.Velocity{}); err != nil {
		return 0, fmt.Errorf("target: add velocity: %w", err)
	}

	if err := ecs.Add(w, entity, component.FactionComponent.Kind(), &component.Faction{Name: faction}); err != nil {
		return 0, fmt.Errorf("target: add faction: %w", err)
	}

	if err := ecs.Add(w, entity, component.HealthComponent.Kind(), &component.Health{Max: TargetHealth, Current: TargetHealth}); err != nil {
		return 0, fmt.Errorf("target: add health: %w", err)
	}

	if err := ecs.Add(w, entity, component.DamageableComponent.Kind(), &component.Damageable{Table: table}); err != nil {
		return 0, fmt.Errorf("target: add damageable: %w", err)
	}

	if err := ecs.Add(w, entity, component.TintComponent.Kind(), &component.Tint{Color: color.NRGBA{R: 0xd0, G: 0x40, B: 0x40, A: 0xff}}); err != nil {
		return 0, fmt.Errorf("target: add tint: %w", err)
	}

	return entity, nil
}
