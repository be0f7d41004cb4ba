package nodes

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

// RecordReply appends the agent turn to the history. The reply text must be
// appended at exactly the index any draft record claimed for it.
func RecordReply(st *GraphState) (*GraphState, error) {
	if strings.TrimSpace(st.Reply) == "" {
		return nil, fmt.Errorf("%w: dispatch produced an empty reply", contractx.ErrValidation)
	}
	st.Session.AppendTurn(contractx.RoleAgent, st.Reply, st.Now)
	return st, nil
}

// ValidateAndSaveState persists the session after checking its invariants.
func ValidateAndSaveState(ctx context.Context, st *GraphState, store statex.Store) (*GraphState, error) {
	if err := st.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session state invalid before save: %w", err)
	}
	if err := store.Save(ctx, st.Session); err != nil {
		return nil, fmt.Errorf("save session state: %w", err)
	}
	return st, nil
}

func FinalizeReply(st *GraphState) (GraphOutput, error) {
	return GraphOutput{
		SessionID: st.SessionID,
		Reply:     st.Reply,
	}, nil
}
