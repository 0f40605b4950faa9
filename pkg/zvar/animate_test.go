package zvar

import (
	"runtime"
	"testing"
	"time"
)

// tick advances animations one step and commits the writes they queued.
func tick(u *Updates, now time.Time) {
	u.Tick(now)
	u.Apply()
}

func TestAnimateWritesEachTick(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	steps := 0
	h, err := Animate(v, func(a *Animation) int {
		steps++
		if steps == 3 {
			a.Stop()
		}
		return steps
	})
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	defer h.Stop()

	if !v.IsAnimating() {
		t.Error("IsAnimating = false with a registered animation")
	}

	now := time.Now()
	for i := 0; i < 5; i++ {
		tick(u, now.Add(time.Duration(i)*time.Millisecond))
	}

	if steps != 3 {
		t.Errorf("step ran %d times, want 3", steps)
	}
	if got := v.Get(); got != 3 {
		t.Errorf("value = %d, want 3", got)
	}
	if !h.IsStopped() {
		t.Error("handle not stopped after the closure finished")
	}
	if v.IsAnimating() {
		t.Error("IsAnimating = true after the animation finished")
	}
	if got := u.LiveAnimations(); got != 0 {
		t.Errorf("LiveAnimations = %d, want 0", got)
	}
}

func TestAnimateRejectsReadOnly(t *testing.T) {
	u := New()
	v := NewConst(u, 0)

	if _, err := Animate(v, func(*Animation) int { return 1 }); !IsReadOnly(err) {
		t.Errorf("Animate on const returned %v, want ReadOnlyError", err)
	}
}

func TestAnimateStop(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	h, err := Animate(v, func(*Animation) int { return 99 })
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}

	h.Stop()
	tick(u, time.Now())

	if got := v.Get(); got != 0 {
		t.Errorf("stopped animation wrote %d", got)
	}
	if v.IsAnimating() {
		t.Error("IsAnimating = true after Stop")
	}
}

func TestDirectSetPreemptsAnimation(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	h, err := Animate(v, func(*Animation) int { return 1 })
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	defer h.Stop()

	now := time.Now()
	tick(u, now)
	if got := v.Get(); got != 1 {
		t.Fatalf("animated value = %d, want 1", got)
	}

	// A direct set requested while the animation runs outranks it.
	mustSet(t, v, 50)
	tick(u, now.Add(time.Millisecond))
	if got := v.Get(); got != 50 {
		t.Errorf("value = %d, want direct set to win with 50", got)
	}

	// The outranked animation halts for good.
	tick(u, now.Add(2*time.Millisecond))
	if got := v.Get(); got != 50 {
		t.Errorf("value = %d, preempted animation wrote again", got)
	}
	if !h.IsStopped() {
		t.Error("preempted animation still reports running")
	}
}

func TestYoungerAnimationWins(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	old, err := Animate(v, func(*Animation) int { return 1 })
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	defer old.Stop()
	young, err := Animate(v, func(*Animation) int { return 2 })
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	defer young.Stop()

	tick(u, time.Now())

	// Both wrote this tick; the younger one's importance prevails.
	if got := v.Get(); got != 2 {
		t.Errorf("value = %d, want the younger animation's 2", got)
	}
}

func TestEscalateReclaimsControl(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	h, err := Animate(v, func(*Animation) int { return 1 })
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	defer h.Stop()

	now := time.Now()
	mustSet(t, v, 50)
	tick(u, now)
	if got := v.Get(); got != 50 {
		t.Fatalf("value = %d, want 50", got)
	}

	h.Escalate()
	tick(u, now.Add(time.Millisecond))
	if got := v.Get(); got != 1 {
		t.Errorf("value = %d, escalated animation should write again", got)
	}
}

func TestAnimationDroppedHandleStops(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	if _, err := Animate(v, func(*Animation) int { return 1 }); err != nil {
		t.Fatalf("Animate returned %v", err)
	}

	runtime.GC()
	runtime.GC()

	tick(u, time.Now())
	if got := v.Get(); got != 0 {
		t.Errorf("animation wrote %d after its handle was dropped", got)
	}
	if got := u.LiveAnimations(); got != 0 {
		t.Errorf("LiveAnimations = %d, want 0", got)
	}
}

func TestAnimationPermSurvivesDrop(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	func() {
		h, err := Animate(v, func(a *Animation) int {
			a.Stop()
			return 7
		})
		if err != nil {
			t.Fatalf("Animate returned %v", err)
		}
		h.Perm()
	}()

	runtime.GC()
	runtime.GC()

	tick(u, time.Now())
	if got := v.Get(); got != 7 {
		t.Errorf("permanent animation did not write: value = %d", got)
	}
}

func TestEaseVarReachesTarget(t *testing.T) {
	u := New()
	v := NewVar(u, 0.0)

	h, err := EaseVar(v, 100.0, 100*time.Millisecond, Linear, LerpFloat64)
	if err != nil {
		t.Fatalf("EaseVar returned %v", err)
	}
	defer h.Stop()

	start := time.Now()
	tick(u, start.Add(50*time.Millisecond))
	mid := v.Get()
	if mid <= 0 || mid >= 100 {
		t.Errorf("midway value = %v, want strictly between 0 and 100", mid)
	}

	tick(u, start.Add(time.Second))
	if got := v.Get(); got != 100 {
		t.Errorf("final value = %v, want exactly 100", got)
	}
	if !h.IsStopped() {
		t.Error("ease animation still running past its duration")
	}
}

func TestStepWritesAfterDelay(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	h, err := Step(v, 9, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Step returned %v", err)
	}
	defer h.Stop()

	start := time.Now()
	tick(u, start.Add(10*time.Millisecond))
	if got := v.Get(); got != 0 {
		t.Errorf("value before delay = %d, want 0", got)
	}

	tick(u, start.Add(time.Second))
	if got := v.Get(); got != 9 {
		t.Errorf("value after delay = %d, want 9", got)
	}
	if !h.IsStopped() {
		t.Error("step animation still running after firing")
	}
}

func TestSequenceWalksKeyframes(t *testing.T) {
	u := New()
	v := NewVar(u, 0.0)

	frames := []Keyframe[float64]{
		{Value: 10, Offset: 0.5},
		{Value: 20, Offset: 1.0},
	}
	h, err := Sequence(v, frames, 100*time.Millisecond, Linear, LerpFloat64)
	if err != nil {
		t.Fatalf("Sequence returned %v", err)
	}
	defer h.Stop()

	// The animation clock starts inside Animate, slightly before start, so
	// the sampled values land a hair past the nominal offsets.
	start := time.Now()
	tick(u, start.Add(25*time.Millisecond))
	if got := v.Get(); got < 5 || got > 6 {
		t.Errorf("value at t=0.25 = %v, want about 5", got)
	}

	tick(u, start.Add(75*time.Millisecond))
	if got := v.Get(); got < 15 || got > 16 {
		t.Errorf("value at t=0.75 = %v, want about 15", got)
	}

	tick(u, start.Add(time.Second))
	if got := v.Get(); got != 20 {
		t.Errorf("final value = %v, want 20", got)
	}
}
