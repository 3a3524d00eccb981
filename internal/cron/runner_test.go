package cronrunner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunner_RejectsBadSpec(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	if _, err := r.Add("not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunner_RunsJobWithBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")
	r := New(nil, base)

	var runs int32
	var sawBase atomic.Bool
	if _, err := r.Add("@every 1s", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		if ctx.Value(key{}) == "base" {
			sawBase.Store(true)
		}
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if atomic.LoadInt32(&runs) == 0 {
		t.Fatalf("job never ran")
	}
	if !sawBase.Load() {
		t.Fatalf("job did not receive base context")
	}
}

func TestRunner_SkipsCanceledBase(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(nil, base)
	var runs int32
	_, _ = r.Add("@every 1s", func(context.Context) { atomic.AddInt32(&runs, 1) })
	r.Start()
	time.Sleep(1500 * time.Millisecond)
	r.Stop()
	if atomic.LoadInt32(&runs) != 0 {
		t.Fatalf("runs=%d want 0", runs)
	}
}
