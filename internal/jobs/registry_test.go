package jobs

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	called := false
	err := r.Register("demo", func(ctx context.Context, payload json.RawMessage) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	fn, ok := r.Get("demo")
	if !ok {
		t.Fatal("expected handler to be found")
	}
	if err := fn(context.Background(), nil); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !called {
		t.Error("handler was not invoked")
	}
}

func TestRegistry_UnknownKey(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Error("expected lookup of unregistered key to fail")
	}
}

func TestRegistry_DuplicateKeyRejected(t *testing.T) {
	r := NewRegistry()
	noop := func(ctx context.Context, payload json.RawMessage) error { return nil }

	if err := r.Register("demo", noop); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register("demo", noop); err == nil {
		t.Error("expected duplicate registration to be rejected")
	}
}
