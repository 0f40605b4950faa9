package zvar

import "testing"

func TestModifyToMut(t *testing.T) {
	u := New()
	v := NewVar(u, []string{"a"})

	err := v.Modify(func(m *ModifyView[[]string]) {
		s := m.ToMut()
		*s = append(*s, "b")
	})
	if err != nil {
		t.Fatalf("Modify returned %v", err)
	}

	// Staged state must stay invisible until the pass runs.
	if got := v.Get(); len(got) != 1 {
		t.Fatalf("value before apply = %v, want [a]", got)
	}

	u.Apply()
	got := v.Get()
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("value = %v, want [a b]", got)
	}
}

func TestModifyGetSeesStagedValue(t *testing.T) {
	u := New()
	v := NewVar(u, 1)

	err := v.Modify(func(m *ModifyView[int]) {
		if got := m.Get(); got != 1 {
			t.Errorf("Get before staging = %d, want 1", got)
		}
		m.Set(2)
		if got := m.Get(); got != 2 {
			t.Errorf("Get after staging = %d, want 2", got)
		}
		m.Set(m.Get() + 1)
	})
	if err != nil {
		t.Fatalf("Modify returned %v", err)
	}
	u.Apply()

	if got := v.Get(); got != 3 {
		t.Errorf("value = %d, want 3", got)
	}
}

func TestUpdateForcesNotification(t *testing.T) {
	u := New()
	v := NewVar(u, 5)

	var updates []bool
	h := v.Hook(func(args *HookArgs[int]) bool {
		updates = append(updates, args.Update)
		return true
	})
	defer h.Unsubscribe()

	if err := v.Update(); err != nil {
		t.Fatalf("Update returned %v", err)
	}
	u.Apply()

	if len(updates) != 1 || !updates[0] {
		t.Fatalf("hook updates = %v, want one forced update", updates)
	}
	if !v.IsNew() {
		t.Error("IsNew = false after a forced update")
	}
	if got := v.Get(); got != 5 {
		t.Errorf("value changed by Update: %d", got)
	}
}

func TestRepeatedUpdateNotifiesOnce(t *testing.T) {
	u := New()
	v := NewVar(u, 5)

	var updates []bool
	h := v.Hook(func(args *HookArgs[int]) bool {
		updates = append(updates, args.Update)
		return true
	})
	defer h.Unsubscribe()

	// Update is idempotent within one modification.
	err := v.Modify(func(m *ModifyView[int]) {
		m.Update()
		m.Update()
	})
	if err != nil {
		t.Fatalf("Modify returned %v", err)
	}
	u.Apply()

	if len(updates) != 1 || !updates[0] {
		t.Errorf("hook updates = %v, want one forced update", updates)
	}
}

func TestUpdateCombinedWithChange(t *testing.T) {
	u := New()
	v := NewVar(u, 1)

	var updates []bool
	h := v.Hook(func(args *HookArgs[int]) bool {
		updates = append(updates, args.Update)
		return true
	})
	defer h.Unsubscribe()

	// A forced update on a real change reports a value change, not a
	// forced one.
	err := v.Modify(func(m *ModifyView[int]) {
		m.Set(2)
		m.Update()
	})
	if err != nil {
		t.Fatalf("Modify returned %v", err)
	}
	u.Apply()

	if len(updates) != 1 || updates[0] {
		t.Errorf("hook updates = %v, want one unforced notification", updates)
	}
}

func TestModifyTags(t *testing.T) {
	u := New()
	v := NewVar(u, 0)

	type marker struct{ name string }
	tag := &marker{name: "drag"}

	var seen []any
	h := v.Hook(func(args *HookArgs[int]) bool {
		seen = args.Tags
		if !args.HasTag(tag) {
			t.Error("HasTag(tag) = false inside hook")
		}
		return true
	})
	defer h.Unsubscribe()

	err := v.Modify(func(m *ModifyView[int]) {
		m.PushTag(tag)
		m.PushTag("second")
		m.Set(1)
		if !m.HasTag(tag) {
			t.Error("ModifyView.HasTag(tag) = false")
		}
		if len(m.Tags()) != 2 {
			t.Errorf("Tags() = %v, want 2 entries", m.Tags())
		}
	})
	if err != nil {
		t.Fatalf("Modify returned %v", err)
	}
	u.Apply()

	if len(seen) != 2 || seen[0] != any(tag) || seen[1] != "second" {
		t.Errorf("hook tags = %v, want [tag second]", seen)
	}
}
