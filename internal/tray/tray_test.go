package tray

import (
	"testing"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave detection enabled")
	}
}

func TestTray_OnTransition(t *testing.T) {
	tr := New()
	if tr.Last() != gesture.StatusNone {
		t.Fatalf("Last() = %s, want none", tr.Last())
	}

	tr.OnTransition(app.FrameResult{}, app.FrameResult{Result: gesture.Result{Status: gesture.StatusFist}})
	if tr.Last() != gesture.StatusFist {
		t.Errorf("Last() = %s, want fist", tr.Last())
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		status gesture.Status
		want   string
	}{
		{gesture.StatusFist, "Last: Fist (Click)"},
		{gesture.StatusOpen, "Last: Open Hand"},
		{gesture.StatusNone, "Last: no hand"},
	}
	for _, tt := range tests {
		if got := lastTitle(tt.status); got != tt.want {
			t.Errorf("lastTitle(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}

	if toggleTitle(true) == toggleTitle(false) {
		t.Error("toggle titles should differ by state")
	}
}
