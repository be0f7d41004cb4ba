package state

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	st := NewSessionState("s1", testNow)
	st.AppendTurn(contractx.RoleUser, "hello", testNow)
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SessionID != "s1" || len(loaded.Turns) != 1 {
		t.Fatalf("unexpected state: %+v", loaded)
	}

	// Snapshots are deep copies: mutating the loaded state must not leak
	// back into the store.
	loaded.AppendTurn(contractx.RoleAgent, "leak", testNow)
	again, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(again.Turns) != 1 {
		t.Fatalf("store mutated through loaded copy: %d turns", len(again.Turns))
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, NewSessionState("s1", testNow)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after delete, got %v", err)
	}
}
