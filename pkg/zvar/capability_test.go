package zvar

import "testing"

func TestCapabilities(t *testing.T) {
	cases := []struct {
		name      string
		caps      Capabilities
		canUpdate bool
		canModify bool
		canChange bool
		str       string
	}{
		{"const", 0, false, false, false, "CONST"},
		{"new only", CapNew, true, false, false, "NEW"},
		{"full var", CapsVar, true, true, false, "NEW|MODIFY"},
		{"response", CapNew | CapCapsChange, true, false, true, "NEW|CAPS_CHANGE"},
		{"everything", CapsVar | CapCapsChange, true, true, true, "NEW|MODIFY|CAPS_CHANGE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.caps.CanUpdate(); got != tc.canUpdate {
				t.Errorf("CanUpdate = %v, want %v", got, tc.canUpdate)
			}
			if got := tc.caps.CanModify(); got != tc.canModify {
				t.Errorf("CanModify = %v, want %v", got, tc.canModify)
			}
			if got := tc.caps.CanChange(); got != tc.canChange {
				t.Errorf("CanChange = %v, want %v", got, tc.canChange)
			}
			if got := tc.caps.String(); got != tc.str {
				t.Errorf("String = %q, want %q", got, tc.str)
			}
		})
	}
}

func TestCapabilitiesNormalized(t *testing.T) {
	if got := CapModify.normalized(); got != CapsVar {
		t.Errorf("normalized(MODIFY) = %v, want NEW|MODIFY", got)
	}
	if got := CapNew.normalized(); got != CapNew {
		t.Errorf("normalized(NEW) = %v, want NEW", got)
	}
}

func TestCapabilitiesContains(t *testing.T) {
	if !CapsVar.Contains(CapNew) {
		t.Error("CapsVar does not contain NEW")
	}
	if CapNew.Contains(CapModify) {
		t.Error("NEW contains MODIFY")
	}
	if !CapsVar.Contains(0) {
		t.Error("any set should contain the empty set")
	}
}
