package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	purchasex "github.com/kritsada/procure-agent/agent/agents/purchase"
	contractx "github.com/kritsada/procure-agent/agent/contract"
	statex "github.com/kritsada/procure-agent/agent/state"
)

const (
	confirmPrompt = "Shall I send it? (yes/no)"

	noPendingDraftReply = "There's no email awaiting approval right now, so there is nothing to send or cancel."
	ambiguousReply      = "I can answer questions about past vendor communications or help place a purchase order. Could you rephrase what you need?"
	integrityReply      = "I can't send this email: the draft on record no longer matches what you were shown, so I've cancelled it. Please start the order again."
	rejectionReply      = "Understood, I won't send it. The draft has been discarded."
)

// Dispatch routes the synthesized instruction to the matching specialist and
// produces the reply text. Send runs only on the approval path, and only with
// the recipient, subject, and body taken verbatim from the pending draft
// record.
func Dispatch(ctx context.Context, st *GraphState, informer contractx.Informer, purchaser contractx.Purchaser) (*GraphState, error) {
	switch st.Classification.Intent {
	case contractx.IntentInfo:
		return dispatchInfo(ctx, st, informer)
	case contractx.IntentAction:
		return dispatchAction(st, purchaser)
	case contractx.IntentApproval:
		return dispatchApproval(ctx, st, purchaser)
	case contractx.IntentRejection:
		return dispatchRejection(st)
	case contractx.IntentUnroutable:
		if st.Classification.Reason == contractx.ReasonNoPendingDraft {
			st.Reply = noPendingDraftReply
		} else {
			st.Reply = ambiguousReply
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown intent %q", contractx.ErrValidation, st.Classification.Intent)
	}
}

func dispatchInfo(ctx context.Context, st *GraphState, informer contractx.Informer) (*GraphState, error) {
	answer, err := informer.Answer(ctx, st.QueryText)
	if err != nil {
		return nil, fmt.Errorf("informer answer: %w", err)
	}
	st.Reply = answer
	return st, nil
}

func dispatchAction(st *GraphState, purchaser contractx.Purchaser) (*GraphState, error) {
	session := st.Session

	assessment := purchaser.AssessCompleteness(st.Instruction)
	if !assessment.Ready {
		if err := session.Transition(st.ThreadID, statex.ThreadCollecting, st.Now); err != nil {
			return nil, fmt.Errorf("keep thread collecting: %w", err)
		}
		st.Reply = assessment.Prompt
		return st, nil
	}

	if err := session.Transition(st.ThreadID, statex.ThreadReadyToDraft, st.Now); err != nil {
		return nil, fmt.Errorf("mark thread ready: %w", err)
	}

	draft := purchaser.Draft(st.Instruction)
	rendered := purchasex.RenderDraft(draft)

	// The agent turn carrying this rendering has not been appended yet, so
	// its index is the current history length.
	rec := statex.DraftRecord{
		Recipient: draft.Recipient,
		Subject:   draft.Subject,
		Body:      draft.Body,
		TurnIndex: len(session.Turns),
	}
	if err := session.RecordDraft(st.ThreadID, rec, st.Now); err != nil {
		return nil, fmt.Errorf("record draft: %w", err)
	}

	st.Reply = rendered + "\n\n" + confirmPrompt
	return st, nil
}

func dispatchApproval(ctx context.Context, st *GraphState, purchaser contractx.Purchaser) (*GraphState, error) {
	if !st.HasPendingDraft {
		st.Reply = noPendingDraftReply
		return st, nil
	}

	if st.IntegrityFailed {
		if err := st.Session.Transition(st.ThreadID, statex.ThreadAbandoned, st.Now); err != nil {
			return nil, fmt.Errorf("abandon corrupted draft: %w", err)
		}
		st.Reply = integrityReply
		return st, nil
	}

	rec := st.PendingRec
	result := purchaser.Send(ctx, rec.Recipient, rec.Subject, rec.Body)

	switch result.Status {
	case contractx.SendStatusSent:
		if err := st.Session.Transition(st.ThreadID, statex.ThreadSent, st.Now); err != nil {
			return nil, fmt.Errorf("mark thread sent: %w", err)
		}
		st.Reply = fmt.Sprintf("The purchase order email has been sent to %s.", rec.Recipient)

	case contractx.SendStatusDemoFallback:
		if err := st.Session.Transition(st.ThreadID, statex.ThreadSent, st.Now); err != nil {
			return nil, fmt.Errorf("mark thread sent: %w", err)
		}
		st.Reply = fmt.Sprintf(
			"The email gateway is not connected, so the message was not actually delivered. This is the final email that would have gone to %s:\n\n%s",
			rec.Recipient,
			purchasex.RenderDraft(contractx.DraftMessage{Recipient: rec.Recipient, Subject: rec.Subject, Body: rec.Body}),
		)

	case contractx.SendStatusFailed:
		// The draft stays pending so the user can retry or cancel.
		if err := st.Session.Transition(st.ThreadID, statex.ThreadDrafted, st.Now); err != nil {
			return nil, fmt.Errorf("keep thread drafted: %w", err)
		}
		log.Warn().Str("detail", result.Detail).Str("recipient", rec.Recipient).Msg("send failed, draft kept pending")
		st.Reply = fmt.Sprintf(
			"Sending the email failed (%s). The draft is still pending: reply \"yes\" to retry or \"no\" to cancel.",
			result.Detail,
		)

	default:
		return nil, fmt.Errorf("%w: unknown send status %q", contractx.ErrValidation, result.Status)
	}

	return st, nil
}

func dispatchRejection(st *GraphState) (*GraphState, error) {
	if !st.HasPendingDraft {
		st.Reply = noPendingDraftReply
		return st, nil
	}
	if err := st.Session.Transition(st.ThreadID, statex.ThreadAbandoned, st.Now); err != nil {
		return nil, fmt.Errorf("abandon thread: %w", err)
	}
	st.Reply = rejectionReply
	return st, nil
}
