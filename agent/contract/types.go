package contract

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one exchange unit of a conversation. Immutable once appended.
type Turn struct {
	Index     int       `json:"index"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeQuery      AgentType = "query"
)

type Intent string

const (
	IntentInfo       Intent = "info_request"
	IntentAction     Intent = "action_request"
	IntentApproval   Intent = "approval_response"
	IntentRejection  Intent = "rejection_response"
	IntentUnroutable Intent = "unroutable"
)

// Reason qualifies an IntentUnroutable classification so the coordinator can
// word its local reply without re-inspecting the utterance.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonAmbiguous      Reason = "ambiguous"
	ReasonNoPendingDraft Reason = "no_pending_draft"
)

type Classification struct {
	Intent Intent `json:"intent"`
	// Correction marks an action request issued while a draft was pending:
	// the user changed a field instead of approving or rejecting.
	Correction bool   `json:"correction,omitempty"`
	Reason     Reason `json:"reason,omitempty"`
}

// FieldPatch carries purchase-order fields extracted from a single utterance.
// Empty string means "not mentioned". Quantity stays a string so the user's
// phrasing survives into the draft; completeness checks validate it numeric.
type FieldPatch struct {
	Item        string `json:"item,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	VendorEmail string `json:"vendor_email,omitempty"`
	Price       string `json:"price,omitempty"`
	VendorName  string `json:"vendor_name,omitempty"`
}

func (p FieldPatch) IsEmpty() bool {
	return p.Item == "" && p.Quantity == "" && p.VendorEmail == "" && p.Price == "" && p.VendorName == ""
}

// Merge applies the non-empty fields of patch over p. Last write wins per
// field, not per turn.
func (p FieldPatch) Merge(patch FieldPatch) FieldPatch {
	out := p
	if patch.Item != "" {
		out.Item = patch.Item
	}
	if patch.Quantity != "" {
		out.Quantity = patch.Quantity
	}
	if patch.VendorEmail != "" {
		out.VendorEmail = patch.VendorEmail
	}
	if patch.Price != "" {
		out.Price = patch.Price
	}
	if patch.VendorName != "" {
		out.VendorName = patch.VendorName
	}
	return out
}

// PurchaseInstruction is the self-contained instruction handed to the
// purchase agent. It must require no knowledge of any prior turn.
type PurchaseInstruction struct {
	Item        string `json:"item,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	VendorEmail string `json:"vendor_email,omitempty"`
	Price       string `json:"price,omitempty"`
	VendorName  string `json:"vendor_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Assessment struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
}

type DraftMessage struct {
	Recipient          string `json:"recipient"`
	Subject            string `json:"subject"`
	Body               string `json:"body"`
	CreatedAtTurnIndex int    `json:"created_at_turn_index"`
}

type SendStatus string

const (
	SendStatusSent         SendStatus = "sent"
	SendStatusDemoFallback SendStatus = "demo_fallback"
	SendStatusFailed       SendStatus = "failed"
)

type SendResult struct {
	Status SendStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// Match is one knowledge-store hit, highest score first.
type Match struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

type ClassifyRequest struct {
	Text string `json:"text"`
	// PendingDraft reports whether the immediately preceding agent turn
	// rendered a draft that has not been sent or abandoned.
	PendingDraft bool `json:"pending_draft"`
	// Collecting reports whether an action thread is still gathering fields.
	Collecting bool `json:"collecting"`
}
