package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/smallgiants/internal/db"
)

func TestGet_Missing(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetGet_CopiesValue(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	in := []byte("hello")
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in[0] = 'X'

	out, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("stored value was aliased: %q", out)
	}
	out[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "hello" {
		t.Fatalf("returned value was aliased: %q", again)
	}
}

func TestSetWithTTL_ExpiresLazily(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("expected live key, got %v", err)
	}

	now = now.Add(time.Second)
	if s.Len() != 1 {
		t.Fatalf("expired key must stay until read, len=%d", s.Len())
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expired key must be dropped on read, len=%d", s.Len())
	}
}

func TestDel(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"))
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%5))
			_ = s.SetWithTTL(ctx, key, []byte{byte(i)}, time.Hour)
			_, _ = s.Get(ctx, key)
			if i%7 == 0 {
				_ = s.Del(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() > 5 {
		t.Fatalf("expected at most 5 keys, got %d", s.Len())
	}
}
