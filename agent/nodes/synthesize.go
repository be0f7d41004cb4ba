package nodes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	purchasex "github.com/kritsada/procure-agent/agent/agents/purchase"
	contractx "github.com/kritsada/procure-agent/agent/contract"
	extractx "github.com/kritsada/procure-agent/agent/extract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

var anaphoraRe = regexp.MustCompile(`(?i)\b(it|that|this|those|them)\b`)

// SynthesizeInstruction turns the classified turn into a self-contained
// instruction for the chosen specialist. For actions it merges the turn's
// extracted fields over the active thread's accumulated fields, last write
// winning per field. For approvals it re-derives the pending draft from the
// structured record and verifies the rendering the user saw still matches it
// character for character.
func SynthesizeInstruction(st *GraphState) (*GraphState, error) {
	switch st.Classification.Intent {
	case contractx.IntentInfo:
		st.QueryText = resolveQuery(st)

	case contractx.IntentAction:
		if err := synthesizePurchase(st); err != nil {
			return nil, err
		}

	case contractx.IntentApproval:
		verifyPendingDraft(st)
	}

	return st, nil
}

func synthesizePurchase(st *GraphState) error {
	session := st.Session
	patch := extractx.Fields(st.Text)

	thread := session.ActiveThread()
	if thread == nil || thread.Status.Terminal() {
		started, err := session.StartThread(uuid.NewString(), st.Now)
		if err != nil {
			return fmt.Errorf("start purchase thread: %w", err)
		}
		thread = started
	} else if thread.Status == statex.ThreadDrafted {
		// A correction reopens the drafted thread for collection; the old
		// draft record stays in the side-channel but is no longer pending.
		if err := session.Transition(thread.ID, statex.ThreadCollecting, st.Now); err != nil {
			return fmt.Errorf("reopen drafted thread: %w", err)
		}
		st.HasPendingDraft = false
	}

	thread.Fields = thread.Fields.Merge(patch)
	thread.UpdatedAt = st.Now

	st.ThreadID = thread.ID
	st.Instruction = contractx.PurchaseInstruction{
		Item:        thread.Fields.Item,
		Quantity:    thread.Fields.Quantity,
		VendorEmail: thread.Fields.VendorEmail,
		Price:       thread.Fields.Price,
		VendorName:  thread.Fields.VendorName,
	}
	return nil
}

// verifyPendingDraft checks that the agent turn which rendered the pending
// draft still reproduces the stored record verbatim. A mismatch blocks the
// send: the user approved something other than what the record says.
func verifyPendingDraft(st *GraphState) {
	if !st.HasPendingDraft {
		return
	}

	rec := st.PendingRec
	if rec.TurnIndex < 0 || rec.TurnIndex >= len(st.Session.Turns) {
		st.IntegrityFailed = true
		log.Error().Int("turn_index", rec.TurnIndex).Msg("draft record points outside turn history")
		return
	}

	turn := st.Session.Turns[rec.TurnIndex]
	msg := contractx.DraftMessage{
		Recipient: rec.Recipient,
		Subject:   rec.Subject,
		Body:      rec.Body,
	}
	if turn.Role != contractx.RoleAgent || !purchasex.DraftRenderedIn(turn.Text, msg) {
		st.IntegrityFailed = true
		log.Error().Int("turn_index", rec.TurnIndex).Msg("pending draft does not match rendered turn")
	}
}

// resolveQuery expands anaphoric references against the active purchase
// thread so the informer receives a self-contained question.
func resolveQuery(st *GraphState) string {
	text := st.Text
	thread := st.Session.ActiveThread()
	if thread == nil {
		return text
	}
	item := strings.TrimSpace(thread.Fields.Item)
	if item == "" {
		return text
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(item)) {
		return text
	}
	if !anaphoraRe.MatchString(text) {
		return text
	}
	return text + " (regarding " + item + ")"
}
