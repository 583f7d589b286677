package component

import "github.com/johnlavender474/maverick/damage"

type Health struct {
	Max     int
	Current int
}

func (h *Health) Alive() bool {
	return h != nil && h.Current > 0
}

var HealthComponent = NewComponent[Health]()

// Damageable holds the damage table negotiated against incoming hits.
type Damageable struct {
	Table *damage.Table
}

var DamageableComponent = NewComponent[Damageable]()

// Hit is a pending damage request against the entity that owns the queue.
type Hit struct {
	Kind   damage.Kind
	Attrs  damage.Attributes
	Source uint64
}

type HitQueue struct {
	Hits []Hit
}

var HitQueueComponent = NewComponent[HitQueue]()
