package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/strandhq/strand/iox"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(iox.CloseFunc(s))
	return s
}

func mustAppend(t *testing.T, s *store.Store, topic, payload string) *types.Frame {
	t.Helper()
	f, err := s.Append(context.Background(), topic, []byte(payload), nil)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return f
}

func recvTagged(t *testing.T, c *Classifier) *types.Lifecycle {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	l, ok := c.Recv(ctx)
	if !ok {
		t.Fatal("Recv returned closed")
	}
	return l
}

// TestClassifier_Counting drives k historical frames, the sentinel, and m
// live frames through the classifier and checks the k/1/m tag counts and
// their relative order.
func TestClassifier_Counting(t *testing.T) {
	s := openTestStore(t)

	const k = 7
	for i := 0; i < k; i++ {
		mustAppend(t, s, "t", fmt.Sprintf("hist-%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := s.Read(ctx, types.ReadOptions{Follow: true})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	c := NewClassifier(sub)

	for i := 0; i < k; i++ {
		l := recvTagged(t, c)
		if l.Tag != types.TagHistorical {
			t.Fatalf("frame %d tag = %s, want historical", i, l.Tag)
		}
	}

	l := recvTagged(t, c)
	if l.Tag != types.TagThreshold {
		t.Fatalf("sentinel tag = %s, want threshold", l.Tag)
	}

	const m = 4
	for i := 0; i < m; i++ {
		mustAppend(t, s, "t", fmt.Sprintf("live-%d", i))
		l := recvTagged(t, c)
		if l.Tag != types.TagLive {
			t.Fatalf("live frame %d tag = %s, want live", i, l.Tag)
		}
		if !l.IsLive() {
			t.Error("IsLive() = false for live tag")
		}
	}
}

func TestClassifier_NoSentinelAllHistorical(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		mustAppend(t, s, "t", fmt.Sprintf("p-%d", i))
	}

	// No follow: the subscription never emits the sentinel.
	sub, err := s.Read(context.Background(), types.ReadOptions{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	c := NewClassifier(sub)

	count := 0
	for {
		l, ok := c.Recv(context.Background())
		if !ok {
			break
		}
		if l.Tag != types.TagHistorical {
			t.Fatalf("tag = %s, want historical", l.Tag)
		}
		count++
	}
	if count != 5 {
		t.Errorf("classified %d frames, want 5", count)
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestClassifier_StrictOneShot(t *testing.T) {
	s := openTestStore(t)

	// A persisted frame on the reserved topic acts as the sentinel for a
	// replay-only subscription; later frames are Live even before any
	// synthetic sentinel would have been emitted.
	mustAppend(t, s, "t", "before")
	mustAppend(t, s, types.TopicThreshold, "")
	mustAppend(t, s, "t", "after")

	sub, err := s.Read(context.Background(), types.ReadOptions{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	c := NewClassifier(sub)

	var tags []types.LifecycleTag
	for {
		l, ok := c.Recv(context.Background())
		if !ok {
			break
		}
		tags = append(tags, l.Tag)
	}

	want := []types.LifecycleTag{types.TagHistorical, types.TagThreshold, types.TagLive}
	if fmt.Sprint(tags) != fmt.Sprint(want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestClassifier_RecvCancellation(t *testing.T) {
	s := openTestStore(t)

	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	sub, err := s.Read(subCtx, types.ReadOptions{Follow: true})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	c := NewClassifier(sub)
	recvTagged(t, c) // sentinel on an empty store

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := c.Recv(ctx); ok {
		t.Error("Recv returned a frame after cancellation")
	}
}
