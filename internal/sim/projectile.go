package sim

import (
	"math"
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/scripting"
)

// projectileSystem advances every in-flight body and resolves impacts.
// Projectiles are positioned by the sim directly, not the physics engine;
// the engine only receives the impact forces they deliver.
type projectileSystem struct {
	d *Driver
}

func (s *projectileSystem) Phase() coresys.Phase { return coresys.PhaseProjectiles }

func (s *projectileSystem) Update(dt time.Duration) {
	d := s.d
	step := dt.Seconds()
	d.store.Projectiles.EachOrdered(func(id ecs.EntityID, p *game.Projectile) {
		p.TimeAlive += step
		switch p.Blueprint.Kind {
		case data.ShotBeam:
			s.tickBeam(id, p, step)
		default:
			s.tickBallistic(id, p, step)
		}
	})
}

func (s *projectileSystem) tickBallistic(id ecs.EntityID, p *game.Projectile, step float64) {
	d := s.d
	bp := p.Blueprint
	tr := mustGet(d.store.Transforms, id)
	if tr == nil {
		d.store.MarkDead(id)
		return
	}
	if p.TimeAlive > bp.MaxLifespan {
		if bp.SplashOnExpiry {
			d.applySplash(bp, p.Source, tr.X, tr.Y, p.VelX, p.VelY, 1)
			d.emitAudio(game.AudioHit, id, tr.X, tr.Y)
		}
		d.store.MarkDead(id)
		return
	}
	x := tr.X + p.VelX*step
	y := tr.Y + p.VelY*step
	d.store.Place(id, x, y, tr.Rot)

	if _, ok := s.firstContact(id, p, x, y); ok {
		d.applySplash(bp, p.Source, x, y, p.VelX, p.VelY, 1)
		d.emitAudio(game.AudioHit, id, x, y)
		d.store.MarkDead(id)
	}
}

// firstContact finds the lowest-id live body the projectile overlaps,
// ignoring its shooter and anything already in its hit set.
func (s *projectileSystem) firstContact(id ecs.EntityID, p *game.Projectile, x, y float64) (ecs.EntityID, bool) {
	d := s.d
	// Query wide enough to cover the largest collision radius any blueprint
	// can put in play.
	for _, cand := range d.store.Near(x, y, d.table.MaxBodyRadius()) {
		if cand == id || cand == p.Source || p.HitSet[cand] || d.store.Projectiles.Has(cand) {
			continue
		}
		ct := mustGet(d.store.Transforms, cand)
		r := contactRadius(d.store, cand)
		if r <= 0 {
			continue
		}
		if math.Hypot(ct.X-x, ct.Y-y) <= r {
			p.HitSet[cand] = true
			return cand, true
		}
	}
	return 0, false
}

// tickBeam re-evaluates a live beam each tick: the endpoint snaps to the
// target's current position and splash damage is applied there, scaled by
// dt so a beam's blueprint damage reads as damage per second.
func (s *projectileSystem) tickBeam(id ecs.EntityID, p *game.Projectile, step float64) {
	d := s.d
	bp := p.Blueprint
	expired := p.TimeAlive > bp.BeamDuration ||
		!d.store.Alive(p.Source) || !d.store.Alive(p.Target)
	if expired {
		tr := mustGet(d.store.Transforms, id)
		if tr != nil {
			d.emitAudio(game.AudioLaserStop, p.Source, tr.X, tr.Y)
		}
		d.store.MarkDead(id)
		return
	}
	src := mustGet(d.store.Transforms, p.Source)
	end := mustGet(d.store.Transforms, p.Target)
	if src == nil || end == nil {
		d.store.MarkDead(id)
		return
	}
	// The beam entity rides its emitter; the renderer draws emitter → endpoint.
	d.store.Place(id, src.X, src.Y, math.Atan2(end.Y-src.Y, end.X-src.X))
	d.applySplash(bp, p.Source, end.X, end.Y, end.X-src.X, end.Y-src.Y, step)
}

// applySplash delivers area damage and impact forces around a point. Damage
// falls off with distance from the point: full inside the primary radius,
// scripted falloff out to the secondary, nothing beyond. scale multiplies
// the blueprint damage (1 for discrete impacts, dt for beam ticks). Lethal
// damage marks the victim for the death sweep; nothing is destroyed here.
func (d *Driver) applySplash(bp *data.ShotBlueprint, src ecs.EntityID, x, y, dirX, dirY, scale float64) {
	reach := math.Max(bp.PrimaryRadius, bp.SecondaryRadius)
	if reach <= 0 {
		return
	}
	dlen := math.Hypot(dirX, dirY)
	for _, id := range d.store.Near(x, y, reach) {
		if id == src || d.store.Projectiles.Has(id) {
			continue
		}
		tr := mustGet(d.store.Transforms, id)
		dist := math.Hypot(tr.X-x, tr.Y-y)
		dmg := d.scripts.DamageFalloff(scripting.FalloffContext{
			BaseDamage:      bp.Damage,
			Distance:        dist,
			PrimaryRadius:   bp.PrimaryRadius,
			SecondaryRadius: bp.SecondaryRadius,
		}) * scale
		frac := 0.0
		if bp.Damage > 0 {
			frac = dmg / (bp.Damage * scale)
		} else if dist <= reach {
			frac = 1
		}
		if dmg > 0 {
			d.applyDamage(id, dmg)
		}
		if frac > 0 {
			d.applyImpactForce(id, tr, x, y, dirX, dirY, dlen, bp, frac)
		}
	}
}

func (d *Driver) applyDamage(id ecs.EntityID, dmg float64) {
	if u, ok := d.store.Units.Get(id); ok {
		u.HP -= dmg
		if u.HP <= 0 {
			d.store.MarkDead(id)
		}
		return
	}
	if b, ok := d.store.Buildings.Get(id); ok {
		b.HP -= dmg
		if b.HP <= 0 {
			d.store.MarkDead(id)
		}
	}
}

// applyImpactForce shoves the victim radially (hit force) and along the
// shot's travel direction (knockback), both scaled by the falloff fraction.
// The physics engine owns what the shove does to the body.
func (d *Driver) applyImpactForce(id ecs.EntityID, tr *game.Transform, x, y, dirX, dirY, dlen float64, bp *data.ShotBlueprint, frac float64) {
	if bp.HitForce == 0 && bp.KnockBackForce == 0 {
		return
	}
	rx, ry := tr.X-x, tr.Y-y
	rlen := math.Hypot(rx, ry)
	var fx, fy float64
	if rlen > 0 {
		fx += rx / rlen * bp.HitForce * frac
		fy += ry / rlen * bp.HitForce * frac
	}
	if dlen > 0 {
		fx += dirX / dlen * bp.KnockBackForce * frac
		fy += dirY / dlen * bp.KnockBackForce * frac
	}
	if finite(fx) && finite(fy) {
		d.phys.ApplyForce(id, fx, fy)
	}
}

// contactRadius is the body radius used for projectile collision.
func contactRadius(st *game.Store, id ecs.EntityID) float64 {
	if u, ok := st.Units.Get(id); ok {
		return u.CollisionRadius
	}
	if b, ok := st.Buildings.Get(id); ok {
		return math.Max(b.Width, b.Height) / 2
	}
	return 0
}
