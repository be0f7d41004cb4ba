package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")

	// ErrDraftIntegrity means the draft could not be re-derived verbatim at
	// approval time. Sending a reconstructed-but-different message is
	// forbidden, so the thread is abandoned instead.
	ErrDraftIntegrity = errors.New("draft integrity violation")

	ErrKnowledgeUnavailable = errors.New("knowledge store unavailable")
	ErrMessagingUnavailable = errors.New("messaging gateway unavailable")
	ErrMessagingFailed      = errors.New("messaging send failed")
)
