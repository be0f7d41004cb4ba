package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	llmx "github.com/kritsada/procure-agent/agent/llm"
)

// LLM refines the info/action split with a model while keeping every
// safety-relevant decision rule-based: when a draft is pending, or when the
// rules already found an intent marker, the model is never consulted.
type LLM struct {
	rules  *Rules
	runner compose.Runnable[map[string]any, llmClassifierOutput]
}

type llmClassifierOutput struct {
	Intent string `json:"intent"`
}

func NewLLM(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*LLM, error) {
	runner, err := llmx.NewStructuredRunner[llmClassifierOutput](ctx, chatModel, systemPrompt, "classifier.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &LLM{
		rules:  NewRules(),
		runner: runner,
	}, nil
}

func (c *LLM) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Classification, error) {
	verdict, err := c.rules.Classify(ctx, req)
	if err != nil {
		return contractx.Classification{}, err
	}

	// Only a truly ambiguous utterance with no pending draft is worth a
	// model call; everything else is already decided.
	if req.PendingDraft || verdict.Intent != contractx.IntentUnroutable || verdict.Reason != contractx.ReasonAmbiguous {
		return verdict, nil
	}

	refined, err := c.refine(ctx, req.Text)
	if err != nil {
		log.Warn().Err(err).Msg("llm classifier fallback to rules")
		return verdict, nil
	}
	return refined, nil
}

func (c *LLM) refine(ctx context.Context, text string) (contractx.Classification, error) {
	payload := map[string]any{
		"user_message": text,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	switch strings.ToLower(strings.TrimSpace(out.Intent)) {
	case "info", string(contractx.IntentInfo):
		return contractx.Classification{Intent: contractx.IntentInfo}, nil
	case "action", string(contractx.IntentAction):
		return contractx.Classification{Intent: contractx.IntentAction}, nil
	case string(contractx.IntentUnroutable):
		return contractx.Classification{
			Intent: contractx.IntentUnroutable,
			Reason: contractx.ReasonAmbiguous,
		}, nil
	default:
		return contractx.Classification{}, fmt.Errorf("%w: unsupported intent=%q", contractx.ErrSchemaViolation, out.Intent)
	}
}
