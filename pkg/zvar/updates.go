package zvar

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	interrors "github.com/zng-ui/zvar/internal/errors"
)

// EpochID identifies a single update cycle. A cell "is new" exactly when its
// last-update stamp equals the engine's current epoch.
type EpochID uint64

// Observer receives engine instrumentation callbacks. Implementations must be
// safe for concurrent use; the engine invokes them from the apply goroutine.
// See pkg/metrics for a Prometheus-backed implementation.
type Observer interface {
	// ObserveApply is called once per apply pass with the number of
	// committed modifications and the pass duration.
	ObserveApply(epoch EpochID, changes int, took time.Duration)

	// ObserveCommit is called for every modification that passed the
	// importance gate and notified hooks.
	ObserveCommit()

	// ObserveHook is called for every hook invocation.
	ObserveHook()

	// ObserveAnimationTick is called once per Tick with the number of live
	// animations stepped.
	ObserveAnimationTick(live int)
}

// queuedChange is one pending modification, applied during an apply pass.
type queuedChange func(epoch EpochID)

// Updates is the explicitly constructed update engine shared by a family of
// variables: the epoch counter, the pending-modification queue, and the
// animation registry.
//
// The engine does not schedule cycles itself. An external driver decides when
// cycles occur and calls Tick (run animation steps) and Apply (commit all
// pending modifications) once per cycle.
type Updates struct {
	// mu protects the pending queue.
	mu    sync.Mutex
	queue []queuedChange

	// applyMu serializes apply passes across goroutines.
	applyMu  sync.Mutex
	applying atomic.Bool
	applyGID atomic.Uint64

	// epoch is the current update-cycle ID. Advanced at the start of every
	// apply pass.
	epoch atomic.Uint64

	// postApply runs after the worklist drains, before Apply returns.
	// Capability changes are deferred here so the flag set never changes
	// mid-pass. Only touched while applyMu is held.
	postApply []func()

	// animMu protects the animation registry.
	animMu     sync.Mutex
	animations []*animation

	// animImp is the animation importance counter. Each started animation
	// takes the next value; direct writes use the counter + 1 so they
	// outrank every animation started before them.
	animImp atomic.Uint64

	logger   *slog.Logger
	debug    bool
	tracer   trace.Tracer
	observer Observer
}

// Option configures an Updates engine.
type Option func(*Updates)

// WithLogger sets the logger used for contextual-resolution diagnostics and
// debug-mode apply tracing. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(u *Updates) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithDebug enables debug logging of apply-pass boundaries.
func WithDebug(enabled bool) Option {
	return func(u *Updates) {
		u.debug = enabled
	}
}

// WithTracer sets an OpenTelemetry tracer; when set, each apply pass produces
// one span carrying the epoch and the number of committed changes.
func WithTracer(t trace.Tracer) Option {
	return func(u *Updates) {
		u.tracer = t
	}
}

// WithObserver sets the instrumentation observer.
func WithObserver(o Observer) Option {
	return func(u *Updates) {
		u.observer = o
	}
}

// New creates a new update engine.
func New(opts ...Option) *Updates {
	u := &Updates{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Epoch returns the current update-cycle ID.
func (u *Updates) Epoch() EpochID {
	return EpochID(u.epoch.Load())
}

// SetObserver replaces the instrumentation observer. Intended for wiring
// metrics after construction; not synchronized against a running apply pass.
func (u *Updates) SetObserver(o Observer) {
	u.observer = o
}

// enqueue adds a pending modification. Safe from any goroutine; when called
// from a hook during an apply pass the change is committed within the same
// pass.
func (u *Updates) enqueue(change queuedChange) {
	u.mu.Lock()
	u.queue = append(u.queue, change)
	u.mu.Unlock()
}

// deferPostApply schedules fn to run after the current pass's worklist
// drains. Must only be called from inside an apply pass.
func (u *Updates) deferPostApply(fn func()) {
	u.postApply = append(u.postApply, fn)
}

// Apply runs one apply pass: the epoch advances, then every pending
// modification is committed and its hooks walked. Hooks may enqueue further
// modifications on other cells; those are processed to completion within the
// same pass. Calling Apply from inside a hook panics instead of deadlocking.
func (u *Updates) Apply() {
	if u.applying.Load() && u.applyGID.Load() == goroutineID() {
		panic(interrors.New("Z060").Format())
	}

	u.applyMu.Lock()
	defer u.applyMu.Unlock()

	u.applying.Store(true)
	u.applyGID.Store(goroutineID())
	defer func() {
		u.applyGID.Store(0)
		u.applying.Store(false)
	}()

	epoch := EpochID(u.epoch.Add(1))
	start := time.Now()

	var span trace.Span
	if u.tracer != nil {
		_, span = u.tracer.Start(context.Background(), "zvar.apply",
			trace.WithAttributes(attribute.Int64("zvar.epoch", int64(epoch))))
	}

	changes := 0
	for {
		u.mu.Lock()
		batch := u.queue
		u.queue = nil
		u.mu.Unlock()

		if len(batch) == 0 {
			break
		}
		changes += len(batch)
		for _, change := range batch {
			change(epoch)
		}
	}

	// Deferred capability changes take effect between worklist drain and
	// the next cycle.
	post := u.postApply
	u.postApply = nil
	for _, fn := range post {
		fn()
	}

	took := time.Since(start)
	if span != nil {
		span.SetAttributes(attribute.Int("zvar.changes", changes))
		span.End()
	}
	if u.observer != nil {
		u.observer.ObserveApply(epoch, changes, took)
	}
	if u.debug {
		u.logger.Debug("zvar: apply pass",
			"epoch", uint64(epoch),
			"changes", changes,
			"took", took,
		)
	}
}

// PendingChanges returns the number of queued, not-yet-applied modifications.
func (u *Updates) PendingChanges() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.queue)
}

// isApplyGoroutine reports whether the caller is the goroutine driving the
// current apply pass.
func (u *Updates) isApplyGoroutine() bool {
	return u.applying.Load() && u.applyGID.Load() == goroutineID()
}

// baselineImportance is the importance carried by direct Set/Modify/Update
// calls: one past the animation counter, so a direct write outranks every
// animation started before it while an animation started after it wins again.
func (u *Updates) baselineImportance() uint64 {
	return u.animImp.Load() + 1
}
