package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

var tokenRe = regexp.MustCompile(`[a-z0-9@.]+`)

type memDocument struct {
	text     string
	metadata map[string]string
	tokens   map[string]bool
}

// MemStore is an in-process knowledge store scored by token overlap. It backs
// demo mode and tests, where an embedding service is not available.
type MemStore struct {
	mu   sync.RWMutex
	docs []memDocument
}

var _ contractx.KnowledgeStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) AddDocument(ctx context.Context, text string, metadata map[string]string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: document text is empty", contractx.ErrValidation)
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.mu.Lock()
	m.docs = append(m.docs, memDocument{
		text:     text,
		metadata: meta,
		tokens:   tokenize(text),
	})
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Query(ctx context.Context, text string, k int) ([]contractx.Match, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", contractx.ErrValidation)
	}
	if k <= 0 {
		k = 3
	}

	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]contractx.Match, 0, len(m.docs))
	for _, doc := range m.docs {
		overlap := 0
		for tok := range queryTokens {
			if doc.tokens[tok] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		matches = append(matches, contractx.Match{
			Text:     doc.text,
			Metadata: doc.metadata,
			Score:    float64(overlap) / float64(len(queryTokens)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool, 16)
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 3 {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}
