package system

import (
	"testing"

	"github.com/johnlavender474/maverick/damage"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVictim(t *testing.T, w *ecs.World, health int) (ecs.Entity, *component.HitQueue) {
	t.Helper()
	one := 1
	table, err := damage.NewTable(map[damage.Kind]damage.Rule{
		"bullet":         {Fixed: &one},
		"charged_bullet": {PerCharge: 2},
		"ice":            {Immune: true},
	})
	require.NoError(t, err)

	e := w.CreateEntity()
	q := &component.HitQueue{}
	require.NoError(t, ecs.Add(w, e, component.HealthComponent.Kind(), &component.Health{Max: health, Current: health}))
	require.NoError(t, ecs.Add(w, e, component.DamageableComponent.Kind(), &component.Damageable{Table: table}))
	require.NoError(t, ecs.Add(w, e, component.HitQueueComponent.Kind(), q))
	return e, q
}

func TestDamageSystemNegotiatesHits(t *testing.T) {
	w := ecs.NewWorld()
	sched := ecs.NewScheduler(NewDamageSystem(nil))
	e, q := newVictim(t, w, 10)

	q.Hits = []component.Hit{
		{Kind: "bullet", Attrs: damage.Attributes{Amount: 5}},
		{Kind: "charged_bullet", Attrs: damage.Attributes{Charge: 3}},
		{Kind: "ice", Attrs: damage.Attributes{Amount: 9}},
		{Kind: "spike", Attrs: damage.Attributes{Amount: 9}},
	}
	events := sched.Update(w, 0.1)

	hits := eventsOf(events, ecs.EventHit)
	require.Len(t, hits, 4)
	assert.Equal(t, ecs.HitData{Kind: "bullet", Amount: 1, Health: 9}, hits[0].Data)
	assert.Equal(t, ecs.HitData{Kind: "charged_bullet", Amount: 6, Health: 3}, hits[1].Data)
	assert.Equal(t, ecs.HitData{Kind: "ice", Amount: 0, Health: 3}, hits[2].Data)
	assert.Equal(t, ecs.HitData{Kind: "spike", Amount: 0, Health: 3}, hits[3].Data)
	assert.Empty(t, q.Hits)
	assert.True(t, w.IsAlive(e))
}

func TestDamageSystemDeath(t *testing.T) {
	w := ecs.NewWorld()
	sched := ecs.NewScheduler(NewDamageSystem(nil))
	e, q := newVictim(t, w, 2)

	q.Hits = []component.Hit{
		{Kind: "charged_bullet", Attrs: damage.Attributes{Charge: 1}},
		{Kind: "bullet"},
	}
	events := sched.Update(w, 0.1)

	require.Len(t, eventsOf(events, ecs.EventHit), 1, "hits after death are dropped")
	deaths := eventsOf(events, ecs.EventDeath)
	require.Len(t, deaths, 1)
	assert.Equal(t, e, deaths[0].Entity)
	assert.False(t, w.IsAlive(e))
}

func TestDamageSystemInvulnerable(t *testing.T) {
	w := ecs.NewWorld()
	sched := ecs.NewScheduler(NewDamageSystem(nil))

	e, q := newVictim(t, w, 3)
	require.NoError(t, ecs.Add(w, e, component.BehaviorComponent.Kind(), &component.Behavior{Invulnerable: true}))
	q.Hits = []component.Hit{{Kind: "bullet"}}
	events := sched.Update(w, 0.1)
	require.Len(t, eventsOf(events, ecs.EventDeflect), 1)
	assert.Empty(t, eventsOf(events, ecs.EventHit))
	h, _ := ecs.Get(w, e, component.HealthComponent.Kind())
	assert.Equal(t, 3, h.Current)

	other, q2 := newVictim(t, w, 3)
	require.NoError(t, ecs.Add(w, other, component.InvulnerableComponent.Kind(), &component.Invulnerable{Seconds: 0.2}))
	q2.Hits = []component.Hit{{Kind: "bullet"}}
	events = ecs.NewScheduler(NewDamageSystem(nil), NewTTLSystem()).Update(w, 0.3)
	require.Len(t, eventsOf(events, ecs.EventDeflect), 1)
	assert.False(t, ecs.Has(w, other, component.InvulnerableComponent.Kind()), "timed invulnerability expires")
}
