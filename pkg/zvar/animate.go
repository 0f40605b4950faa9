package zvar

import (
	"sync/atomic"
	"time"
	"weak"
)

// Animation is the per-step context passed to an animation closure.
type Animation struct {
	start time.Time
	now   time.Time
	stop  bool
}

// Start returns the time the animation was started.
func (a *Animation) Start() time.Time {
	return a.start
}

// Now returns the timestamp of the current tick.
func (a *Animation) Now() time.Time {
	return a.now
}

// Elapsed returns how long the animation has been running as of this tick.
func (a *Animation) Elapsed() time.Duration {
	return a.now.Sub(a.start)
}

// Stop marks this step as the animation's last. The value returned by the
// closure is still written.
func (a *Animation) Stop() {
	a.stop = true
}

// animation is the engine-side record of a running animation.
type animation struct {
	id    uint64
	u     *Updates
	start time.Time

	// imp is the animation's importance, fixed when it starts and raised
	// only by Escalate.
	imp atomic.Uint64

	stopped atomic.Bool
	perm    atomic.Bool
	retired atomic.Bool

	wh weak.Pointer[AnimationHandle]

	// step runs the typed closure for one tick and reports whether the
	// animation continues.
	step func(now time.Time) bool

	// onRetire releases the target cell's animating count.
	onRetire func()
}

// alive reports whether the animation should still be ticked.
func (a *animation) alive() bool {
	if a.stopped.Load() {
		return false
	}
	if a.perm.Load() {
		return true
	}
	return a.wh.Value() != nil
}

// retire finalizes the animation exactly once.
func (a *animation) retire() {
	a.stopped.Store(true)
	if a.retired.CompareAndSwap(false, true) {
		a.onRetire()
	}
}

// AnimationHandle controls a running animation. Like subscription handles it
// is weak: dropping every reference stops the animation at its next tick
// unless Perm was called.
type AnimationHandle struct {
	anim *animation
}

// Stop halts the animation. No further values are written. Idempotent.
func (h *AnimationHandle) Stop() {
	h.anim.retire()
}

// Perm lets the animation run to completion even after the handle is
// dropped.
func (h *AnimationHandle) Perm() {
	h.anim.perm.Store(true)
}

// IsStopped reports whether the animation has halted, either explicitly,
// by finishing, or by losing the importance arbitration.
func (h *AnimationHandle) IsStopped() bool {
	return h.anim.stopped.Load()
}

// Escalate re-arms the animation against writers that arrived after it
// started: its importance is raised to a fresh value above every current
// writer, so its next tick wins the arbitration again.
func (h *AnimationHandle) Escalate() {
	h.anim.imp.Store(h.anim.u.animImp.Add(1))
}

// Animate starts an animation driving v. step runs once per engine tick and
// returns the value to write; call Animation.Stop inside step to finish.
//
// The animation's importance is fixed at start. A younger animation on the
// same cell, or a direct set requested after the start, outranks it; once
// outranked the animation halts for good (see AnimationHandle.Escalate).
func Animate[T any](v *Var[T], step func(a *Animation) T) (*AnimationHandle, error) {
	if !v.Capabilities().CanModify() {
		return nil, ReadOnlyError{Capabilities: v.Capabilities()}
	}

	u := v.Updates()
	core := v.core

	an := &animation{
		id:    nextID(),
		u:     u,
		start: time.Now(),
	}
	an.imp.Store(u.animImp.Add(1))

	h := &AnimationHandle{anim: an}
	an.wh = weak.Make(h)

	core.animCount.Add(1)
	an.onRetire = func() {
		core.animCount.Add(-1)
	}
	an.step = func(now time.Time) bool {
		imp := an.imp.Load()
		if imp < core.imp.Load() {
			// A more important writer took over; this animation is done.
			return false
		}
		ctx := &Animation{start: an.start, now: now}
		value := step(ctx)
		core.schedule(imp, func(m *ModifyView[T]) {
			m.Set(value)
		})
		return !ctx.stop
	}

	u.registerAnimation(an)
	return h, nil
}

// registerAnimation adds an to the engine's animation registry.
func (u *Updates) registerAnimation(an *animation) {
	u.animMu.Lock()
	u.animations = append(u.animations, an)
	u.animMu.Unlock()
}

// Tick advances every live animation one step at timestamp now. The values
// the steps produce are queued as ordinary modifications; call Apply
// afterwards to commit them. Finished and dropped animations are removed.
func (u *Updates) Tick(now time.Time) {
	u.animMu.Lock()
	anims := make([]*animation, len(u.animations))
	copy(anims, u.animations)
	u.animMu.Unlock()

	live := 0
	for _, an := range anims {
		if !an.alive() {
			an.retire()
			continue
		}
		live++
		if !an.step(now) {
			an.retire()
		}
	}

	u.animMu.Lock()
	kept := u.animations[:0]
	for _, an := range u.animations {
		if !an.stopped.Load() {
			kept = append(kept, an)
		}
	}
	for i := len(kept); i < len(u.animations); i++ {
		u.animations[i] = nil
	}
	u.animations = kept
	u.animMu.Unlock()

	if u.observer != nil {
		u.observer.ObserveAnimationTick(live)
	}
}

// LiveAnimations returns the number of animations that would be stepped by
// the next Tick.
func (u *Updates) LiveAnimations() int {
	u.animMu.Lock()
	defer u.animMu.Unlock()

	n := 0
	for _, an := range u.animations {
		if an.alive() {
			n++
		}
	}
	return n
}
