package policy

import (
	"testing"
	"time"
)

func TestIsEditable(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{"just created", now, true},
		{"one hour old", now.Add(-1 * time.Hour), true},
		{"just inside window", now.Add(-24*time.Hour + time.Millisecond), true},
		{"exactly 24 hours", now.Add(-24 * time.Hour), false},
		{"25 hours old", now.Add(-25 * time.Hour), false},
		{"created in the future (clock skew)", now.Add(1 * time.Minute), false},
		{"zero timestamp", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEditable(tt.createdAt, now); got != tt.want {
				t.Errorf("IsEditable(%v, %v) = %v, want %v", tt.createdAt, now, got, tt.want)
			}
		})
	}
}

func TestIsEditableZeroNow(t *testing.T) {
	if IsEditable(time.Now(), time.Time{}) {
		t.Error("expected false when now is the zero time")
	}
}

func TestIsEditableString(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	if !IsEditableString("2025-03-10T11:00:00Z", now) {
		t.Error("expected a one-hour-old timestamp to be editable")
	}
	if IsEditableString("2025-03-08T11:00:00Z", now) {
		t.Error("expected a two-day-old timestamp to not be editable")
	}
	if IsEditableString("not-a-timestamp", now) {
		t.Error("expected an unparseable timestamp to fail closed")
	}
	if IsEditableString("", now) {
		t.Error("expected an empty timestamp to fail closed")
	}
}
