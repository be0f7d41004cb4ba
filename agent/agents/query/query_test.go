package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

type fakeKnowledgeStore struct {
	matches []contractx.Match
	err     error
	queries []string
	lastK   int
}

func (f *fakeKnowledgeStore) AddDocument(ctx context.Context, text string, metadata map[string]string) error {
	return nil
}

func (f *fakeKnowledgeStore) Query(ctx context.Context, text string, k int) ([]contractx.Match, error) {
	f.queries = append(f.queries, text)
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func TestAnswerFormatsMatches(t *testing.T) {
	t.Parallel()

	store := &fakeKnowledgeStore{
		matches: []contractx.Match{
			{
				Text:     "the brick delivery is delayed by three days",
				Metadata: map[string]string{"sender": "Bob (BrickCo)", "date": "2023-10-25"},
				Score:    0.91,
			},
		},
	}
	a, err := New(store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer, err := a.Answer(context.Background(), "what did Bob say about the bricks?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	for _, want := range []string{"Bob (BrickCo)", "2023-10-25", "delayed by three days"} {
		if !strings.Contains(answer, want) {
			t.Fatalf("answer missing %q:\n%s", want, answer)
		}
	}
	if store.lastK != defaultTopK {
		t.Fatalf("k = %d, want %d", store.lastK, defaultTopK)
	}
}

func TestAnswerApologizesWhenStoreUnreachable(t *testing.T) {
	t.Parallel()

	store := &fakeKnowledgeStore{err: errors.New("connection refused")}
	a, err := New(store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer, err := a.Answer(context.Background(), "any delivery delays?")
	if err != nil {
		t.Fatalf("Answer() must not surface store errors, got %v", err)
	}
	if answer != apologyText {
		t.Fatalf("answer = %q, want apology", answer)
	}
}

func TestAnswerNoMatches(t *testing.T) {
	t.Parallel()

	a, err := New(&fakeKnowledgeStore{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer, err := a.Answer(context.Background(), "anything about granite?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != noMatchText {
		t.Fatalf("answer = %q, want no-match text", answer)
	}
}

func TestAnswerRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	a, err := New(&fakeKnowledgeStore{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Answer(context.Background(), "   "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestWithTopK(t *testing.T) {
	t.Parallel()

	store := &fakeKnowledgeStore{}
	a, err := New(store, WithTopK(7))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Answer(context.Background(), "anything?"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if store.lastK != 7 {
		t.Fatalf("k = %d, want 7", store.lastK)
	}
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}
