// Package nodes holds the coordinator's pipeline steps. Each node is a pure
// function over GraphState with its dependencies passed in, so the graph
// wiring stays in the coordinator and every step is testable on its own.
package nodes

import (
	"errors"
	"time"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

var (
	ErrInvalidSession = errors.New("session id must not be empty")
	ErrInvalidMessage = errors.New("message text must not be empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	SessionID string
	Reply     string
}

// GraphState is the scratchpad threaded through the pipeline for one turn.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session *statex.SessionState

	Classification contractx.Classification

	// QueryText is the self-contained query handed to the informer. It may
	// differ from Text when an anaphoric reference was resolved.
	QueryText string

	// Instruction is the self-contained purchase instruction synthesized from
	// the active thread's merged fields. Valid only for action intents.
	Instruction contractx.PurchaseInstruction
	ThreadID    string

	// Approval path: the draft record pending on the active thread, and
	// whether its rendering could be re-derived verbatim from the turn that
	// showed it to the user.
	PendingRec      statex.DraftRecord
	HasPendingDraft bool
	IntegrityFailed bool

	Reply string
}
