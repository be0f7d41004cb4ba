// Package query implements the stateless information-retrieval specialist:
// each call is an independent knowledge-base lookup grounded only in what the
// store returns.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	llmx "github.com/kritsada/procure-agent/agent/llm"
)

const (
	defaultTopK = 3

	apologyText = "I'm sorry, I couldn't reach the knowledge base right now. Please try again in a moment."
	noMatchText = "I couldn't find anything relevant in the knowledge base for that."
)

type Agent struct {
	store contractx.KnowledgeStore
	topK  int

	// summarizer is optional; without it, matches are formatted verbatim.
	summarizer compose.Runnable[map[string]any, summaryOutput]
}

type summaryOutput struct {
	Answer string `json:"answer"`
}

var _ contractx.Informer = (*Agent)(nil)

type Option func(*Agent)

func WithTopK(k int) Option {
	return func(a *Agent) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithSummarizer phrases answers with a model instead of raw match listings.
func WithSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) Option {
	return func(a *Agent) {
		runner, err := llmx.NewStructuredRunner[summaryOutput](ctx, chatModel, systemPrompt, "query.summary_graph")
		if err != nil {
			log.Warn().Err(err).Msg("query summarizer disabled")
			return
		}
		a.summarizer = runner
	}
}

func New(store contractx.KnowledgeStore, opts ...Option) (*Agent, error) {
	if store == nil {
		return nil, errors.New("knowledge store is required")
	}
	a := &Agent{
		store: store,
		topK:  defaultTopK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Answer looks the query up in the knowledge store and formats the matches.
// An unreachable store yields an apology, never an error: the session must
// survive a knowledge outage.
func (a *Agent) Answer(ctx context.Context, queryText string) (string, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return "", fmt.Errorf("%w: query is empty", contractx.ErrValidation)
	}

	matches, err := a.store.Query(ctx, queryText, a.topK)
	if err != nil {
		log.Warn().Err(err).Str("query", queryText).Msg("knowledge store unreachable")
		return apologyText, nil
	}
	if len(matches) == 0 {
		return noMatchText, nil
	}

	evidence := formatMatches(matches)
	if a.summarizer == nil {
		return evidence, nil
	}

	answer, err := a.summarize(ctx, queryText, evidence)
	if err != nil {
		log.Warn().Err(err).Msg("query summarizer fallback to raw evidence")
		return evidence, nil
	}
	return answer, nil
}

func (a *Agent) summarize(ctx context.Context, queryText, evidence string) (string, error) {
	payload := map[string]any{
		"question": queryText,
		"evidence": evidence,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal summary payload: %v", contractx.ErrValidation, err)
	}

	out, err := a.summarizer.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", fmt.Errorf("%w: summary invoke: %v", contractx.ErrModelInvoke, err)
	}

	answer := strings.TrimSpace(out.Answer)
	if answer == "" {
		return "", fmt.Errorf("%w: summary answer is empty", contractx.ErrSchemaViolation)
	}
	return answer, nil
}

func formatMatches(matches []contractx.Match) string {
	var b strings.Builder
	b.WriteString("Here is what I found:\n")
	for _, m := range matches {
		date := m.Metadata["date"]
		sender := m.Metadata["sender"]
		if date != "" || sender != "" {
			fmt.Fprintf(&b, "Date: %s, Sender: %s\n", date, sender)
		}
		fmt.Fprintf(&b, "Content: %s\n---\n", strings.TrimSpace(m.Text))
	}
	return strings.TrimSpace(b.String())
}
