package player

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStatePredicates(t *testing.T) {
	if Stopped.IsActive() {
		t.Error("Stopped.IsActive() = true")
	}
	if !Playing.IsActive() || !Paused.IsActive() {
		t.Error("Playing/Paused should be active")
	}
	if !Playing.CanPause() || Paused.CanPause() {
		t.Error("only Playing can pause")
	}
	if !Paused.CanResume() || Playing.CanResume() {
		t.Error("only Paused can resume")
	}
}

func TestMockToggle(t *testing.T) {
	m := NewMock()

	m.Toggle()
	if m.State() != Stopped {
		t.Fatalf("toggle from Stopped moved to %v", m.State())
	}

	m.SetState(Playing)
	m.Toggle()
	if m.State() != Paused {
		t.Fatalf("toggle from Playing moved to %v", m.State())
	}
	m.Toggle()
	if m.State() != Playing {
		t.Fatalf("toggle from Paused moved to %v", m.State())
	}
}
