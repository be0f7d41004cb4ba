package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

// ClassifyIntent assigns exactly one intent to the user turn, informed by
// whether a draft is pending and whether an action thread is mid-collection.
func ClassifyIntent(ctx context.Context, st *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	rec, thread, pending := st.Session.PendingDraft()
	if pending {
		st.PendingRec = rec
		st.HasPendingDraft = true
		st.ThreadID = thread.ID
	}

	collecting := false
	if active := st.Session.ActiveThread(); active != nil && active.Status == statex.ThreadCollecting {
		collecting = true
	}

	cls, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		Text:         st.Text,
		PendingDraft: pending,
		Collecting:   collecting,
	})
	if err != nil {
		return nil, fmt.Errorf("classify intent: %w", err)
	}

	log.Debug().
		Str("session_id", st.SessionID).
		Str("intent", string(cls.Intent)).
		Bool("correction", cls.Correction).
		Bool("pending_draft", pending).
		Msg("intent classified")

	st.Classification = cls
	return st, nil
}
