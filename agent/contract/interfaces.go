package contract

import "context"

// Classifier assigns exactly one intent to the latest user utterance.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Classification, error)
}

// Informer is the stateless information-retrieval specialist. Answer never
// surfaces a transport failure: an unreachable knowledge store yields an
// apology string, not an error.
type Informer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Purchaser is the stateless action specialist with its three fixed
// operations. It trusts its caller: the coordinator is the sole enforcement
// point for the approval gate in front of Send.
type Purchaser interface {
	AssessCompleteness(instr PurchaseInstruction) Assessment
	Draft(instr PurchaseInstruction) DraftMessage
	Send(ctx context.Context, recipient, subject, body string) SendResult
}

type KnowledgeStore interface {
	AddDocument(ctx context.Context, text string, metadata map[string]string) error
	Query(ctx context.Context, text string, k int) ([]Match, error)
}

type MessagingGateway interface {
	IsAvailable(ctx context.Context) bool
	Send(ctx context.Context, recipient, subject, body string) (SendResult, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
