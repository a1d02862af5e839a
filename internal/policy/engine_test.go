package policy

import (
	"context"
	"testing"
)

func TestEmptyAllowListAdmitsEveryone(t *testing.T) {
	ctx := context.Background()

	// A nil list (no ALLOWED_USERS configured) must behave exactly like an
	// explicitly empty one: everyone is admitted.
	for _, allowed := range [][]string{nil, {}} {
		engine, err := NewEngine(ctx, DefaultPolicy, allowed)
		if err != nil {
			t.Fatalf("NewEngine(%v) failed: %v", allowed, err)
		}

		for _, userID := range []string{"u1", "anyone", ""} {
			ok, err := engine.Allowed(ctx, userID, "chat")
			if err != nil {
				t.Fatalf("Allowed(%q) failed: %v", userID, err)
			}
			if !ok {
				t.Fatalf("user %q denied with allow list %v", userID, allowed)
			}
		}
	}
}

func TestAllowListAdmitsListedUsersOnly(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	cases := []struct {
		userID string
		want   bool
	}{
		{"alice", true},
		{"bob", true},
		{"mallory", false},
		{"", false},
	}
	for _, tc := range cases {
		ok, err := engine.Allowed(ctx, tc.userID, "chat")
		if err != nil {
			t.Fatalf("Allowed(%q) failed: %v", tc.userID, err)
		}
		if ok != tc.want {
			t.Fatalf("Allowed(%q) = %v, want %v", tc.userID, ok, tc.want)
		}
	}
}

func TestInvalidPolicyFailsPreparation(t *testing.T) {
	_, err := NewEngine(context.Background(), "package access_policy\ndecision :=", nil)
	if err == nil {
		t.Fatal("expected preparation error for a broken policy")
	}
}
