package zvar

import (
	"math"
	"time"
)

// Curve transforms linear animation progress in [0, 1] into eased progress.
type Curve func(t float64) float64

// Linear returns progress unchanged.
func Linear(t float64) float64 {
	return t
}

// Ease is a general-purpose curve, equivalent to CSS ease.
var Ease = CubicBezier(0.25, 0.1, 0.25, 1.0)

// EaseIn starts slowly and accelerates, equivalent to CSS ease-in.
var EaseIn = CubicBezier(0.4, 0.0, 1.0, 1.0)

// EaseOut starts quickly and decelerates, equivalent to CSS ease-out.
var EaseOut = CubicBezier(0.0, 0.0, 0.2, 1.0)

// EaseInOut starts and ends slowly, equivalent to CSS ease-in-out.
var EaseInOut = CubicBezier(0.4, 0.0, 0.2, 1.0)

// CubicBezier returns a curve through the control points (x1,y1) and
// (x2,y2), starting at (0,0) and ending at (1,1), matching CSS
// cubic-bezier().
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		// Newton-Raphson converges quickly for most values.
		for range 8 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return sampleCurve(y1, y2, clampUnit(u))
			}
			dx := sampleCurveDerivative(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Bisection guarantees a stable solution in [0, 1].
		lo, hi := 0.0, 1.0
		u = clampUnit(u)
		for range 12 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) * 0.5
		}

		return sampleCurve(y1, y2, u)
	}
}

func sampleCurve(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleCurveDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// Lerp linearly interpolates between two values of T at progress t.
type Lerp[T any] func(from, to T, t float64) T

// LerpFloat64 linearly interpolates between two float64 values.
func LerpFloat64(from, to float64, t float64) float64 {
	return from + (to-from)*t
}

// LerpDuration linearly interpolates between two durations.
func LerpDuration(from, to time.Duration, t float64) time.Duration {
	return from + time.Duration(float64(to-from)*t)
}

// EaseVar animates v from its current value to target over duration, shaping
// progress with curve and interpolating with lerp. The animation finishes on
// the first tick at or past duration, writing target exactly.
func EaseVar[T any](v *Var[T], target T, duration time.Duration, curve Curve, lerp Lerp[T]) (*AnimationHandle, error) {
	from := v.Get()
	return Animate(v, func(a *Animation) T {
		t := progress(a.Elapsed(), duration)
		if t >= 1 {
			a.Stop()
			return target
		}
		return lerp(from, target, curve(t))
	})
}

// Step writes target after delay has elapsed, losing to any more important
// writer that arrives in between like every animation does.
func Step[T any](v *Var[T], target T, delay time.Duration) (*AnimationHandle, error) {
	return Animate(v, func(a *Animation) T {
		if a.Elapsed() < delay {
			return v.Get()
		}
		a.Stop()
		return target
	})
}

// Keyframe is one stop of a Sequence: hold value until offset of the total
// duration has elapsed.
type Keyframe[T any] struct {
	// Value is the keyframe's target.
	Value T

	// Offset is the keyframe's position in [0, 1] of the sequence
	// duration. Keyframes must be ordered by ascending offset.
	Offset float64
}

// Sequence animates v through frames over duration, easing between adjacent
// keyframes with curve and lerp. The first keyframe at offset 0 replaces the
// cell's current value as the starting point.
func Sequence[T any](v *Var[T], frames []Keyframe[T], duration time.Duration, curve Curve, lerp Lerp[T]) (*AnimationHandle, error) {
	if len(frames) == 0 {
		h, err := Animate(v, func(a *Animation) T {
			a.Stop()
			return v.Get()
		})
		return h, err
	}

	start := Keyframe[T]{Value: v.Get(), Offset: 0}
	if frames[0].Offset <= 0 {
		start = frames[0]
		frames = frames[1:]
	}

	return Animate(v, func(a *Animation) T {
		t := progress(a.Elapsed(), duration)
		if t >= 1 {
			a.Stop()
			if len(frames) == 0 {
				return start.Value
			}
			return frames[len(frames)-1].Value
		}

		prev := start
		for _, frame := range frames {
			if t <= frame.Offset {
				span := frame.Offset - prev.Offset
				local := 1.0
				if span > 0 {
					local = (t - prev.Offset) / span
				}
				return lerp(prev.Value, frame.Value, curve(local))
			}
			prev = frame
		}
		return prev.Value
	})
}

// progress maps elapsed time onto [0, 1] of duration. A non-positive
// duration completes immediately.
func progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	t := float64(elapsed) / float64(duration)
	return clampUnit(t)
}
