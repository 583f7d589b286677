package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"go.uber.org/zap"
)

const (
	collisionTypeActor cp.CollisionType = iota + 1
	collisionTypeProjectile
	collisionTypeSolid
)

// PhysicsConfig describes the arena. Walls are only built when Right is
// greater than Left.
type PhysicsConfig struct {
	Gravity float64
	Floor   float64
	Left    float64
	Right   float64
}

type PhysicsSystem struct {
	cfg           PhysicsConfig
	logger        *zap.Logger
	space         *cp.Space
	handlersReady bool

	// world is only set while the space is stepping.
	world  *ecs.World
	bodies map[ecs.Entity]*bodyInfo
}

type bodyInfo struct {
	body  *cp.Body
	shape *cp.Shape
}

func NewPhysicsSystem(cfg PhysicsConfig, logger *zap.Logger) *PhysicsSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	ps := &PhysicsSystem{
		cfg:    cfg,
		logger: logger.Named("physics"),
		bodies: make(map[ecs.Entity]*bodyInfo),
	}
	ps.space = cp.NewSpace()
	ps.space.Iterations = 20
	ps.space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})
	ps.buildArena()
	return ps
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) Update(w *ecs.World, dt float64) {
	if ps == nil || w == nil || dt <= 0 {
		return
	}

	ps.ensureHandlers()
	ps.cleanupEntities(w)
	ps.syncEntities(w)

	ps.world = w
	ps.space.Step(dt)
	ps.world = nil

	ps.syncTransforms(w)
	ps.destroySpent(w)
}

func (ps *PhysicsSystem) buildArena() {
	const thickness = 4
	far := 1e6
	segments := [][2]cp.Vector{
		{{X: -far, Y: ps.cfg.Floor}, {X: far, Y: ps.cfg.Floor}},
	}
	if ps.cfg.Right > ps.cfg.Left {
		segments = append(segments,
			[2]cp.Vector{{X: ps.cfg.Left, Y: -far}, {X: ps.cfg.Left, Y: ps.cfg.Floor}},
			[2]cp.Vector{{X: ps.cfg.Right, Y: -far}, {X: ps.cfg.Right, Y: ps.cfg.Floor}},
		)
	}
	for _, seg := range segments {
		shape := cp.NewSegment(ps.space.StaticBody, seg[0], seg[1], thickness)
		shape.SetFriction(0)
		shape.SetCollisionType(collisionTypeSolid)
		ps.space.AddShape(shape)
	}
}

func (ps *PhysicsSystem) ensureHandlers() {
	if ps.handlersReady {
		return
	}
	ps.handlersReady = true

	hit := ps.space.NewCollisionHandler(collisionTypeProjectile, collisionTypeActor)
	hit.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		a, b := arb.Shapes()
		ps.recordHit(shapeEntity(a), shapeEntity(b))
		return false
	}

	wall := ps.space.NewCollisionHandler(collisionTypeProjectile, collisionTypeSolid)
	wall.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		a, _ := arb.Shapes()
		if p, ok := ps.projectile(shapeEntity(a)); ok {
			p.Spent = true
		}
		return false
	}

	// Actors walk through each other and projectiles pass through
	// projectiles.
	for _, pair := range [][2]cp.CollisionType{
		{collisionTypeActor, collisionTypeActor},
		{collisionTypeProjectile, collisionTypeProjectile},
	} {
		h := ps.space.NewCollisionHandler(pair[0], pair[1])
		h.BeginFunc = func(*cp.Arbiter, *cp.Space, interface{}) bool { return false }
	}
}

func (ps *PhysicsSystem) projectile(e ecs.Entity) (*component.Projectile, bool) {
	if ps.world == nil || !e.Valid() {
		return nil, false
	}
	return ecs.Get(ps.world, e, component.ProjectileComponent.Kind())
}

// recordHit queues a hit on target unless the projectile is spent or
// belongs to the target's faction.
func (ps *PhysicsSystem) recordHit(projectile, target ecs.Entity) {
	p, ok := ps.projectile(projectile)
	if !ok || p.Spent {
		return
	}
	w := ps.world
	faction, ok := ecs.Get(w, target, component.FactionComponent.Kind())
	if !ok || faction.Name == p.Faction {
		return
	}
	if !ecs.Has(w, target, component.HealthComponent.Kind()) {
		return
	}

	q, ok := ecs.Get(w, target, component.HitQueueComponent.Kind())
	if !ok {
		q = &component.HitQueue{}
		if err := ecs.Add(w, target, component.HitQueueComponent.Kind(), q); err != nil {
			return
		}
	}
	q.Hits = append(q.Hits, component.Hit{Kind: p.Kind, Attrs: p.Attrs, Source: uint64(projectile)})
	p.Spent = true
	ps.logger.Debug("hit", zap.Stringer("projectile", projectile), zap.Stringer("target", target), zap.String("kind", string(p.Kind)))
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	for _, e := range w.Query(component.PhysicsBodyComponent.Kind().ID(), component.TransformComponent.Kind().ID()) {
		bodyComp, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		info, ok := ps.bodies[e]
		if !ok {
			transform, _ := ecs.Get(w, e, component.TransformComponent.Kind())
			info = ps.createBody(w, e, bodyComp, transform)
			ps.bodies[e] = info
		}
		if v, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
			info.body.SetVelocityVector(cp.Vector{X: v.X, Y: v.Y})
		}
	}
}

func (ps *PhysicsSystem) createBody(w *ecs.World, e ecs.Entity, bodyComp *component.PhysicsBody, transform *component.Transform) *bodyInfo {
	mass := bodyComp.Mass
	if mass <= 0 {
		mass = 1
	}
	width := math.Max(bodyComp.Width, 1)
	height := math.Max(bodyComp.Height, 1)

	// Infinite moment keeps actors upright.
	body := cp.NewBody(mass, math.Inf(1))
	body.SetPosition(cp.Vector{X: transform.X, Y: transform.Y})
	if !bodyComp.Gravity {
		body.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
			cp.BodyUpdateVelocity(body, cp.Vector{}, damping, dt)
		})
	}

	shape := cp.NewBox(body, width, height, 0)
	shape.SetFriction(0)
	shape.UserData = e
	switch {
	case ecs.Has(w, e, component.ProjectileComponent.Kind()):
		shape.SetCollisionType(collisionTypeProjectile)
		shape.SetSensor(true)
	default:
		shape.SetCollisionType(collisionTypeActor)
		shape.SetSensor(bodyComp.Sensor)
	}

	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	bodyComp.Body = body
	bodyComp.Shape = shape
	return &bodyInfo{body: body, shape: shape}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for e, info := range ps.bodies {
		if !w.IsAlive(e) {
			continue
		}
		pos := info.body.Position()
		vel := info.body.Velocity()
		if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			t.X, t.Y = pos.X, pos.Y
		}
		if v, ok := ecs.Get(w, e, component.VelocityComponent.Kind()); ok {
			v.X, v.Y = vel.X, vel.Y
		}
	}
}

func (ps *PhysicsSystem) destroySpent(w *ecs.World) {
	ecs.ForEach(w, component.ProjectileComponent.Kind(), func(e ecs.Entity, p *component.Projectile) {
		if p.Spent {
			w.DestroyEntity(e)
		}
	})
	ps.cleanupEntities(w)
}

func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, info := range ps.bodies {
		if w.IsAlive(e) && ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			continue
		}
		ps.space.RemoveShape(info.shape)
		ps.space.RemoveBody(info.body)
		delete(ps.bodies, e)
	}
}

func shapeEntity(shape *cp.Shape) ecs.Entity {
	if shape == nil {
		return 0
	}
	e, _ := shape.UserData.(ecs.Entity)
	return e
}
