package zvar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResponseDeliversOnce(t *testing.T) {
	u := New()
	responder, response := NewResponse[string](u)

	if response.Done() {
		t.Fatal("Done = true before Respond")
	}
	if _, ok := response.Get(); ok {
		t.Fatal("Get reported a value before Respond")
	}
	if responder.IsDone() {
		t.Fatal("IsDone = true before Respond")
	}

	if err := responder.Respond("ok"); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	if !responder.IsDone() {
		t.Error("IsDone = false after Respond")
	}

	// Delivery is deferred like every write.
	if response.Done() {
		t.Error("Done = true before apply")
	}
	u.Apply()

	value, ok := response.Get()
	if !ok || value != "ok" {
		t.Errorf("Get = (%q, %v), want (ok, true)", value, ok)
	}

	if err := responder.Respond("again"); !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("second Respond returned %v, want ErrAlreadyResponded", err)
	}
}

func TestResponseCapsDropAfterResolve(t *testing.T) {
	u := New()
	responder, response := NewResponse[int](u)

	caps := response.Capabilities()
	if !caps.Contains(CapNew) || !caps.CanChange() {
		t.Fatalf("unresolved caps = %v, want NEW|CAPS_CHANGE", caps)
	}
	if caps.CanModify() {
		t.Fatalf("response cell reports MODIFY")
	}

	if err := responder.Respond(1); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	u.Apply()

	// The capability change lands between cycles, with the pass that
	// committed the resolution.
	if got := response.Capabilities(); got != 0 {
		t.Errorf("resolved caps = %v, want CONST", got)
	}
}

func TestResponseHookFiresOnce(t *testing.T) {
	u := New()
	responder, response := NewResponse[int](u)

	var got []int
	h := response.Hook(func(value int) {
		got = append(got, value)
	})
	defer h.Unsubscribe()

	if err := responder.Respond(5); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	u.Apply()
	u.Apply()

	if len(got) != 1 || got[0] != 5 {
		t.Errorf("hook deliveries = %v, want [5]", got)
	}
}

func TestResponseHookAfterResolve(t *testing.T) {
	u := New()
	responder, response := NewResponse[int](u)

	if err := responder.Respond(7); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	u.Apply()

	// The cell is constant now; a late subscriber still gets the value.
	var got []int
	h := response.Hook(func(value int) {
		got = append(got, value)
	})
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("hook deliveries = %v, want [7]", got)
	}
	if h.IsAlive() {
		t.Error("handle reports alive after immediate delivery")
	}

	u.Apply()
	if len(got) != 1 {
		t.Errorf("hook deliveries after extra pass = %v, want [7]", got)
	}
}

func TestResponseWait(t *testing.T) {
	u := New()
	responder, response := NewResponse[string](u)

	done := make(chan struct{})
	var value string
	var err error
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		value, err = response.Wait(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := responder.Respond("late"); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	u.Apply()

	<-done
	if err != nil || value != "late" {
		t.Errorf("Wait = (%q, %v), want (late, nil)", value, err)
	}
}

func TestResponseWaitAlreadyResolved(t *testing.T) {
	u := New()
	responder, response := NewResponse[int](u)
	if err := responder.Respond(3); err != nil {
		t.Fatalf("Respond returned %v", err)
	}
	u.Apply()

	value, err := response.Wait(context.Background())
	if err != nil || value != 3 {
		t.Errorf("Wait = (%d, %v), want (3, nil)", value, err)
	}
}

func TestResponseWaitContextCancel(t *testing.T) {
	u := New()
	_, response := NewResponse[int](u)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := response.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}
