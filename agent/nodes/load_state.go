package nodes

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

// LoadOrCreateState fetches the session from the store, creating a fresh one
// for an unknown session, and appends the user turn to the history.
func LoadOrCreateState(ctx context.Context, st *GraphState, store statex.Store) (*GraphState, error) {
	session, err := store.Load(ctx, st.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		session = statex.NewSessionState(st.SessionID, st.Now)
	case err != nil:
		return nil, fmt.Errorf("load session state: %w", err)
	}

	session.EnsureMaps()
	session.AppendTurn(contractx.RoleUser, st.Text, st.Now)

	st.Session = session
	return st, nil
}
