package nodes

import (
	"fmt"
	"strings"
	"time"
)

const maxMessageLength = 4000

// ValidateRequest normalizes the raw input and rejects anything the pipeline
// cannot act on before any state is touched.
func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}
	if len(text) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrInvalidMessage, maxMessageLength)
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       now().UTC(),
	}, nil
}
