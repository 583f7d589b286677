package entity

import (
	"fmt"
	"image/color"
	"math"

	"github.com/johnlavender474/maverick/damage"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/prefabs"
)

// ProjectileOpts places a projectile fired by owner.
type ProjectileOpts struct {
	X, Y    float64
	Angle   float64
	Speed   float64
	Faction string
	Owner   ecs.Entity
}

// NewProjectile creates a damager moving along opts.Angle (degrees, 0 is
// right, positive is down).
func NewProjectile(w *ecs.World, spec *prefabs.ProjectileSpec, opts ProjectileOpts) (ecs.Entity, error) {
	if spec == nil {
		return 0, fmt.Errorf("projectile: nil prefab")
	}

	speed := opts.Speed
	if speed == 0 {
		speed = spec.Speed
	}
	rad := opts.Angle * math.Pi / 180
	vx, vy := math.Cos(rad)*speed, math.Sin(rad)*speed

	entity := w.CreateEntity()

	if err := ecs.Add(w, entity, component.ProjectileComponent.Kind(), &component.Projectile{
		Name:    spec.Name,
		Kind:    damage.Kind(spec.Kind),
		Attrs:   damage.Attributes{Amount: spec.Amount, Charge: spec.Charge},
		Faction: opts.Faction,
		Owner:   uint64(opts.Owner),
	}); err != nil {
		return 0, fmt.Errorf("projectile: add projectile: %w", err)
	}

	if err := ecs.Add(w, entity, component.TransformComponent.Kind(), &component.Transform{X: opts.X, Y: opts.Y, FacingLeft: vx < 0}); err != nil {
		return 0, fmt.Errorf("projectile: add transform: %w", err)
	}

	if err := ecs.Add(w, entity, component.VelocityComponent.Kind(), &component.Velocity{X: vx, Y: vy}); err != nil {
		return 0, fmt.Errorf("projectile: add velocity: %w", err)
	}

	if err := ecs.Add(w, entity, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:   spec.Collider.Width,
		Height:  spec.Collider.Height,
		Gravity: spec.Gravity,
		Sensor:  true,
	}); err != nil {
		return 0, fmt.Errorf("projectile: add physics body: %w", err)
	}

	if spec.TTL > 0 {
		if err := ecs.Add(w, entity, component.TTLComponent.Kind(), &component.TTL{Seconds: spec.TTL}); err != nil {
			return 0, fmt.Errorf("projectile: add ttl: %w", err)
		}
	}

	if spec.Region != "" {
		atlas := spec.Atlas
		if atlas == "" {
			atlas = "projectiles"
		}
		if err := ecs.Add(w, entity, component.AnimationComponent.Kind(), &component.Animation{Atlas: atlas, Key: spec.Region}); err != nil {
			return 0, fmt.Errorf("projectile: add animation: %w", err)
		}
	}

	if err := ecs.Add(w, entity, component.TintComponent.Kind(), &component.Tint{Color: specColor(spec.Color, color.White)}); err != nil {
		return 0, fmt.Errorf("projectile: add tint: %w", err)
	}

	return entity, nil
}
