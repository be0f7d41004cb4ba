// Package classify assigns exactly one intent to each user utterance. The
// rule classifier is the normative implementation: approval detection is a
// fixed-vocabulary match so the human-in-the-loop gate never depends on a
// model's mood. An LLM-assisted classifier can refine the info/action split
// but is never consulted for approvals or rejections.
package classify

import (
	"context"
	"regexp"
	"strings"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	extractx "github.com/kritsada/procure-agent/agent/extract"
)

// approvalPhrases are matched against the whole normalized utterance.
var approvalPhrases = map[string]bool{
	"yes":          true,
	"y":            true,
	"yeah":         true,
	"yep":          true,
	"confirm":      true,
	"confirmed":    true,
	"approve":      true,
	"approved":     true,
	"send":         true,
	"send it":      true,
	"go ahead":     true,
	"ok":           true,
	"okay":         true,
	"sure":         true,
	"do it":        true,
	"yes please":   true,
	"looks good":   true,
	"that's right": true,
}

// approvalTokens lets combined affirmatives through: an utterance whose every
// token is in this set ("yes, go ahead and send it") is an approval.
var approvalTokens = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "y": true,
	"confirm": true, "confirmed": true, "approve": true, "approved": true,
	"send": true, "it": true, "go": true, "ahead": true, "and": true,
	"ok": true, "okay": true, "sure": true, "please": true, "do": true,
	"that": true, "looks": true, "good": true, "right": true, "correct": true,
}

var rejectionPhrases = map[string]bool{
	"no":          true,
	"nope":        true,
	"cancel":      true,
	"cancel it":   true,
	"don't":       true,
	"dont":        true,
	"stop":        true,
	"reject":      true,
	"no thanks":   true,
	"never mind":  true,
	"nevermind":   true,
	"forget it":   true,
	"don't send":  true,
	"do not send": true,
}

var (
	actionVerbRe    = regexp.MustCompile(`(?i)\b(order|buy|purchase|procure|reorder)\b`)
	interrogativeRe = regexp.MustCompile(`(?i)^(what|what's|whats|where|when|who|why|how|which|is|are|was|were|do|does|did|can|could|has|have|show|tell|find|list)\b`)
	statusWordRe    = regexp.MustCompile(`(?i)\b(status|history|invoice|invoices|delay|delays|update|updates|delivery|delivered|quote|quotes)\b`)
	punctTrimRe     = regexp.MustCompile(`[!.?,;:]+`)
)

// Rules is the deterministic intent classifier.
type Rules struct{}

func NewRules() *Rules {
	return &Rules{}
}

func (r *Rules) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Classification, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return contractx.Classification{}, contractx.ErrValidation
	}

	norm := normalize(text)

	if req.PendingDraft {
		if isApproval(norm) {
			return contractx.Classification{Intent: contractx.IntentApproval}, nil
		}
		// A question about the records does not touch the pending draft.
		if isQuestion(text) {
			return contractx.Classification{Intent: contractx.IntentInfo}, nil
		}
		// A response that changes a field is a correction, not a rejection,
		// even when it opens with "no".
		if actionVerbRe.MatchString(text) || !extractx.Fields(text).IsEmpty() {
			return contractx.Classification{Intent: contractx.IntentAction, Correction: true}, nil
		}
		if isRejection(norm) {
			return contractx.Classification{Intent: contractx.IntentRejection}, nil
		}
		// Anything else while a draft awaits review declines it. Only the
		// fixed approval vocabulary can trigger a send.
		return contractx.Classification{Intent: contractx.IntentRejection}, nil
	}

	// Compound utterances: the earliest intent marker in the text wins,
	// with ties resolving to the action.
	actionIdx := matchIndex(actionVerbRe, text)
	infoIdx := earliestInfoMarker(text)
	switch {
	case actionIdx >= 0 && (infoIdx < 0 || actionIdx <= infoIdx):
		return contractx.Classification{Intent: contractx.IntentAction}, nil
	case infoIdx >= 0:
		return contractx.Classification{Intent: contractx.IntentInfo}, nil
	}

	// Mid-collection, a bare field value ("100 pieces", an email address)
	// continues the in-progress action thread.
	if req.Collecting && !extractx.Fields(text).IsEmpty() {
		return contractx.Classification{Intent: contractx.IntentAction}, nil
	}

	if isApproval(norm) {
		return contractx.Classification{
			Intent: contractx.IntentUnroutable,
			Reason: contractx.ReasonNoPendingDraft,
		}, nil
	}

	if isQuestion(text) {
		return contractx.Classification{Intent: contractx.IntentInfo}, nil
	}

	return contractx.Classification{
		Intent: contractx.IntentUnroutable,
		Reason: contractx.ReasonAmbiguous,
	}, nil
}

func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = punctTrimRe.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(lowered), " ")
}

func isApproval(norm string) bool {
	if approvalPhrases[norm] {
		return true
	}
	tokens := strings.Fields(norm)
	if len(tokens) == 0 {
		return false
	}
	sawAffirmative := false
	for _, tok := range tokens {
		if !approvalTokens[tok] {
			return false
		}
		switch tok {
		case "yes", "yeah", "yep", "y", "confirm", "confirmed", "approve", "approved", "send", "ok", "okay", "sure":
			sawAffirmative = true
		}
	}
	return sawAffirmative
}

func isRejection(norm string) bool {
	if rejectionPhrases[norm] {
		return true
	}
	return strings.HasPrefix(norm, "no ") || strings.HasPrefix(norm, "don't send") || strings.HasPrefix(norm, "do not send")
}

func isQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	return interrogativeRe.MatchString(trimmed) || statusWordRe.MatchString(trimmed)
}

func earliestInfoMarker(text string) int {
	trimmed := strings.TrimSpace(text)
	if interrogativeRe.MatchString(trimmed) {
		return 0
	}
	idx := matchIndex(statusWordRe, trimmed)
	if idx < 0 && strings.HasSuffix(trimmed, "?") {
		return len(trimmed) - 1
	}
	return idx
}

func matchIndex(re *regexp.Regexp, text string) int {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}
