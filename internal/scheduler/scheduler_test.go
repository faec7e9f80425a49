package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/sheets/memory"
)

type fakeReloader struct {
	mu       sync.Mutex
	triggers []string
	err      error
}

func (f *fakeReloader) Reload(ctx context.Context, trigger string) (*core.Table, error) {
	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return memory.NewDemo().ReadTable(ctx)
}

func (f *fakeReloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func quietLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Output: buf})
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every now and then", &fakeReloader{}, quietLogger(&bytes.Buffer{}))
	if err == nil || !strings.Contains(err.Error(), "parse reload schedule") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRunOnceCountsFailures(t *testing.T) {
	var buf bytes.Buffer
	r := &fakeReloader{}
	s, err := New("*/5 * * * *", r, quietLogger(&buf))
	if err != nil {
		t.Fatal(err)
	}

	s.runOnce()
	r.err = errors.New("sheet unavailable")
	s.runOnce()

	total, failed := s.Runs()
	if total != 2 || failed != 1 {
		t.Fatalf("runs = %d/%d, want 2/1", total, failed)
	}
	if r.triggers[0] != Trigger {
		t.Fatalf("unexpected trigger %q", r.triggers[0])
	}
	if !strings.Contains(buf.String(), "Scheduled reload failed") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}

func TestRunFiresAndStops(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a one second schedule")
	}
	r := &fakeReloader{}
	s, err := New("@every 1s", r, quietLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for r.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if r.count() == 0 {
		t.Fatal("scheduled reload never fired")
	}
}
