package actorctx

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no user on empty context")
	}

	ctx := WithUserID(context.Background(), "user-1")
	id, ok := UserIDFrom(ctx)
	if !ok || id != "user-1" {
		t.Fatalf("got %q %v, want user-1 true", id, ok)
	}

	if _, ok := UserIDFrom(WithUserID(context.Background(), "")); ok {
		t.Fatalf("empty id must not count as authenticated")
	}
}
