package lease

import (
	"context"
	"testing"
	"time"
)

func TestTryAcquireBlocksSecondCaller(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.TryAcquire(ctx, "t1:policy.pdf", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = s.TryAcquire(ctx, "t1:policy.pdf", time.Minute)
	if err != nil {
		t.Fatalf("second acquire error: %v", err)
	}
	if ok {
		t.Fatal("second acquire should be blocked while the lease is live")
	}
}

func TestCompletedLeaseStillBlocks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.TryAcquire(ctx, "k", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := s.Complete(ctx, "k", time.Minute); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if ok, _ := s.TryAcquire(ctx, "k", time.Minute); ok {
		t.Fatal("completed lease inside TTL must still suppress duplicates")
	}
}

func TestExpiredLeaseIsReacquirable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	s.SetNow(func() time.Time { return now })

	if ok, _ := s.TryAcquire(ctx, "k", time.Minute); !ok {
		t.Fatal("acquire failed")
	}

	// Move past the TTL; expiry is evaluated lazily on the next check.
	s.SetNow(func() time.Time { return now.Add(61 * time.Second) })

	ok, err := s.TryAcquire(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after expiry = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestReleaseClearsLease(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.TryAcquire(ctx, "k", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := s.Release(ctx, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if ok, _ := s.TryAcquire(ctx, "k", time.Minute); !ok {
		t.Fatal("released key should be immediately reacquirable")
	}
}
