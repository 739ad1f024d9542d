package offline

import "testing"

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"synced", StatusSynced, true},
		{"pending create", StatusPendingCreate, true},
		{"pending update", StatusPendingUpdate, true},
		{"pending delete", StatusPendingDelete, true},
		{"empty", Status(""), false},
		{"lowercase", Status("synced"), false},
		{"unknown", Status("DELETED"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatus_Pending(t *testing.T) {
	if StatusSynced.Pending() {
		t.Error("a synced record carries no unsent mutation")
	}
	for _, s := range []Status{StatusPendingCreate, StatusPendingUpdate, StatusPendingDelete} {
		if !s.Pending() {
			t.Errorf("%s should be pending", s)
		}
	}
	if Status("garbage").Pending() {
		t.Error("an invalid status is not pending")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("PENDING_CREATE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != StatusPendingCreate {
		t.Errorf("expected %s, got %s", StatusPendingCreate, s)
	}

	if _, err := ParseStatus("pending_create"); err == nil {
		t.Error("expected an error for a value outside the closed set")
	}
}
