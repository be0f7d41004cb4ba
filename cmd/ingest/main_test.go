package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunEveryStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := runEvery(ctx, time.Millisecond, func(context.Context) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runEvery() error = %v, want context.Canceled", err)
	}
	if calls < 3 {
		t.Fatalf("fn ran %d times, want at least 3", calls)
	}
}

func TestRunEveryKeepsGoingAfterFailedPass(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := runEvery(ctx, time.Millisecond, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runEvery() error = %v, want context.Canceled", err)
	}
	if calls < 2 {
		t.Fatalf("fn ran %d times, want a retry after the failure", calls)
	}
}

func TestReadDocuments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs.jsonl")
	content := `{"text": "brick delivery delayed", "metadata": {"sender": "Bob"}}

{"text": "invoice #4521", "metadata": {"topic": "invoice"}}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	docs, err := readDocuments(path)
	if err != nil {
		t.Fatalf("readDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2 (blank lines skipped)", len(docs))
	}
	if docs[0].Text != "brick delivery delayed" || docs[0].Metadata["sender"] != "Bob" {
		t.Fatalf("docs[0] = %+v", docs[0])
	}
}

func TestReadDocumentsRejectsEmptyText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte(`{"text": ""}`+"\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := readDocuments(path); err == nil {
		t.Fatal("expected error for document with empty text")
	}
}
