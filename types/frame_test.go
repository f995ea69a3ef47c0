package types

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestParseFrameID_RoundTrip(t *testing.T) {
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("NewV7 failed: %v", err)
	}

	parsed, err := ParseFrameID(id.String())
	if err != nil {
		t.Fatalf("ParseFrameID failed: %v", err)
	}
	if parsed != id {
		t.Errorf("parsed = %v, want %v", parsed, id)
	}
}

func TestParseFrameID_Invalid(t *testing.T) {
	if _, err := ParseFrameID("not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestKeyBytes_SortableInAllocationOrder(t *testing.T) {
	// UUIDv7 keys must compare in allocation order as raw bytes; this is
	// what makes the partition scan equal append order.
	var prev []byte
	for i := 0; i < 100; i++ {
		id, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("NewV7 failed: %v", err)
		}
		f := &Frame{ID: id, Topic: "t", Hash: "h"}
		key := f.KeyBytes()
		if len(key) != 16 {
			t.Fatalf("key length = %d, want 16", len(key))
		}
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			t.Fatalf("key %x not greater than predecessor %x", key, prev)
		}
		prev = key
	}
}

func TestIsThreshold(t *testing.T) {
	sentinel := &Frame{Topic: TopicThreshold}
	if !sentinel.IsThreshold() {
		t.Error("sentinel frame not recognized")
	}
	if (&Frame{Topic: "orders"}).IsThreshold() {
		t.Error("application frame misclassified as sentinel")
	}
}

func TestStopReason_IsFailure(t *testing.T) {
	cases := []struct {
		reason StopReason
		want   bool
	}{
		{StopCompleted, false},
		{StopExternal, false},
		{StopClosed, false},
		{StopError, true},
	}
	for _, tc := range cases {
		if got := tc.reason.IsFailure(); got != tc.want {
			t.Errorf("%s.IsFailure() = %v, want %v", tc.reason, got, tc.want)
		}
	}
}
