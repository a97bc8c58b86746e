package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/addinfi/makemyposts-be/internal/testutil"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func stores(t *testing.T) map[string]StateStore {
	return map[string]StateStore{
		"memory": NewMemoryStateStore(),
		"gorm":   NewGormStateStore(testutil.OpenGormDB(t, &OAuthState{})),
	}
}

func TestStateManager_VerifyWithinWindow(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clk := &clock{t: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)}
			m := NewStateManager(store).WithClock(clk.Now)
			ctx := context.Background()

			state, err := m.Issue(ctx, Facebook, "user-1")
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			clk.t = clk.t.Add(4*time.Minute + 59*time.Second)
			st, err := m.Verify(ctx, state)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if st.Platform != Facebook || st.UserID != "user-1" {
				t.Fatalf("unexpected state: %+v", st)
			}

			if _, err := m.Verify(ctx, state); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("second Verify err = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestStateManager_RejectsStateOlderThanFiveMinutes(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clk := &clock{t: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)}
			m := NewStateManager(store).WithClock(clk.Now)
			ctx := context.Background()

			state, err := m.Issue(ctx, Instagram, "user-1")
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			clk.t = clk.t.Add(5*time.Minute + time.Second)
			if _, err := m.Verify(ctx, state); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Verify err = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestStateManager_UnknownAndEmpty(t *testing.T) {
	m := NewStateManager(NewMemoryStateStore())
	for _, s := range []string{"", "never-issued"} {
		if _, err := m.Verify(context.Background(), s); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("Verify(%q) err = %v", s, err)
		}
	}
}

func TestStateManager_Purge(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clk := &clock{t: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)}
			m := NewStateManager(store).WithClock(clk.Now)
			ctx := context.Background()

			if _, err := m.Issue(ctx, LinkedIn, "u"); err != nil {
				t.Fatalf("Issue: %v", err)
			}
			clk.t = clk.t.Add(10 * time.Minute)
			fresh, err := m.Issue(ctx, LinkedIn, "u")
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			n, err := m.Purge(ctx)
			if err != nil || n != 1 {
				t.Fatalf("Purge = %d, %v; want 1", n, err)
			}
			if _, err := m.Verify(ctx, fresh); err != nil {
				t.Fatalf("fresh state should survive purge: %v", err)
			}
		})
	}
}

func TestGenerateState_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState: %v", err)
		}
		if len(s) < 40 || seen[s] {
			t.Fatalf("weak or repeated state %q", s)
		}
		seen[s] = true
	}
}
