package classify

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

func TestClassifyWithPendingDraft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		text           string
		wantIntent     contractx.Intent
		wantCorrection bool
	}{
		{name: "plain yes", text: "yes", wantIntent: contractx.IntentApproval},
		{name: "confirm", text: "confirm", wantIntent: contractx.IntentApproval},
		{name: "send it", text: "send it", wantIntent: contractx.IntentApproval},
		{name: "combined affirmative", text: "yes, go ahead and send it", wantIntent: contractx.IntentApproval},
		{name: "looks good", text: "looks good!", wantIntent: contractx.IntentApproval},
		{name: "plain no", text: "no", wantIntent: contractx.IntentRejection},
		{name: "cancel it", text: "cancel it", wantIntent: contractx.IntentRejection},
		{name: "dont send", text: "don't send", wantIntent: contractx.IntentRejection},
		{
			name:           "correction with leading no",
			text:           "no, make that 50 pieces instead",
			wantIntent:     contractx.IntentAction,
			wantCorrection: true,
		},
		{
			name:           "correction with new vendor",
			text:           "actually order it from bob@brickco.com",
			wantIntent:     contractx.IntentAction,
			wantCorrection: true,
		},
		{
			name:       "question while draft pending",
			text:       "what did the invoice from SuppliesInc say?",
			wantIntent: contractx.IntentInfo,
		},
		{
			name:       "unclear response defaults to rejection",
			text:       "hmm let me think",
			wantIntent: contractx.IntentRejection,
		},
	}

	r := NewRules()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Classify(context.Background(), contractx.ClassifyRequest{
				Text:         tc.text,
				PendingDraft: true,
			})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Intent != tc.wantIntent {
				t.Fatalf("Classify(%q).Intent = %s, want %s", tc.text, got.Intent, tc.wantIntent)
			}
			if got.Correction != tc.wantCorrection {
				t.Fatalf("Classify(%q).Correction = %v, want %v", tc.text, got.Correction, tc.wantCorrection)
			}
		})
	}
}

func TestClassifyWithoutPendingDraft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		collecting bool
		wantIntent contractx.Intent
		wantReason contractx.Reason
	}{
		{name: "order request", text: "I need to order lumber", wantIntent: contractx.IntentAction},
		{name: "question", text: "what did Bob say about the bricks?", wantIntent: contractx.IntentInfo},
		{name: "status word", text: "any delivery delays this week", wantIntent: contractx.IntentInfo},
		{
			name:       "compound order first",
			text:       "order 50 bags of cement and tell me the delivery status",
			wantIntent: contractx.IntentAction,
		},
		{
			name:       "compound question first",
			text:       "what's the status of the bricks? also order more cement",
			wantIntent: contractx.IntentInfo,
		},
		{
			name:       "bare quantity mid collection",
			text:       "100 pieces",
			collecting: true,
			wantIntent: contractx.IntentAction,
		},
		{
			name:       "bare email mid collection",
			text:       "charlie@woodworks.com",
			collecting: true,
			wantIntent: contractx.IntentAction,
		},
		{
			name:       "approval with nothing pending",
			text:       "yes",
			wantIntent: contractx.IntentUnroutable,
			wantReason: contractx.ReasonNoPendingDraft,
		},
		{
			name:       "small talk",
			text:       "nice weather today",
			wantIntent: contractx.IntentUnroutable,
			wantReason: contractx.ReasonAmbiguous,
		},
	}

	r := NewRules()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Classify(context.Background(), contractx.ClassifyRequest{
				Text:       tc.text,
				Collecting: tc.collecting,
			})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Intent != tc.wantIntent {
				t.Fatalf("Classify(%q).Intent = %s, want %s", tc.text, got.Intent, tc.wantIntent)
			}
			if got.Reason != tc.wantReason {
				t.Fatalf("Classify(%q).Reason = %s, want %s", tc.text, got.Reason, tc.wantReason)
			}
		})
	}
}

func TestClassifyEmptyText(t *testing.T) {
	t.Parallel()

	r := NewRules()
	_, err := r.Classify(context.Background(), contractx.ClassifyRequest{Text: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
