package partition

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/strandhq/strand/iox"
)

func openTestPartition(t *testing.T) *Partition {
	t.Helper()
	p, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(iox.CloseFunc(p))
	return p
}

func TestPutGet(t *testing.T) {
	p := openTestPartition(t)

	if err := p.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := p.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("Get = %q, want v1", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	p := openTestPartition(t)

	if _, err := p.Get([]byte("absent")); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestScan_KeyOrder(t *testing.T) {
	p := openTestPartition(t)

	// Insert out of order; scan must return key order.
	for _, k := range []string{"03", "01", "02"} {
		if err := p.Put([]byte(k), []byte("v"+k)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var keys []string
	err := p.Scan(nil, false, func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"01", "02", "03"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestScan_FromSeekAndEarlyStop(t *testing.T) {
	p := openTestPartition(t)

	for i := 1; i <= 5; i++ {
		key := fmt.Sprintf("%02d", i)
		if err := p.Put([]byte(key), []byte("v")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var keys []string
	err := p.Scan([]byte("03"), false, func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return len(keys) < 2, nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if fmt.Sprint(keys) != fmt.Sprint([]string{"03", "04"}) {
		t.Errorf("keys = %v, want [03 04]", keys)
	}
}

func TestScan_Reverse(t *testing.T) {
	p := openTestPartition(t)

	for _, k := range []string{"01", "02", "03"} {
		if err := p.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var first string
	err := p.Scan(nil, true, func(key, _ []byte) (bool, error) {
		first = string(key)
		return false, nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if first != "03" {
		t.Errorf("reverse scan first key = %q, want 03", first)
	}
}

func TestWatch_WakesOnCommit(t *testing.T) {
	p := openTestPartition(t)

	ch := p.Watch()
	done := make(chan struct{})
	go func() {
		<-ch
		close(done)
	}()

	if err := p.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher not woken by commit")
	}

	// Re-armed channel must be open until the next commit.
	select {
	case <-p.Watch():
		t.Fatal("fresh watch channel already closed")
	default:
	}
}

func TestWatch_WakesOnClose(t *testing.T) {
	p, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ch := p.Watch()
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher not woken by close")
	}
	if !p.Closed() {
		t.Error("Closed() = false after Close")
	}

	// Second close is a no-op.
	if err := p.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
