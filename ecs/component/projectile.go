package component

import "github.com/johnlavender474/maverick/damage"

// Projectile is a damager. It is destroyed after its first hit.
type Projectile struct {
	Name    string
	Kind    damage.Kind
	Attrs   damage.Attributes
	Faction string
	Owner   uint64
	Spent   bool
}

var ProjectileComponent = NewComponent[Projectile]()

// SpawnRequest asks the spawn system for a projectile.
type SpawnRequest struct {
	Projectile string
	X, Y       float64
	// Angle is in degrees, 0 pointing right, positive pointing down.
	Angle float64
	// Speed overrides the projectile's own speed when non-zero.
	Speed float64
}

type SpawnQueue struct {
	Requests []SpawnRequest
}

var SpawnQueueComponent = NewComponent[SpawnQueue]()
