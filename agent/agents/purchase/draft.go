package purchase

import (
	"fmt"
	"strings"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

const (
	draftHeader = "--- DRAFT EMAIL ---"
	draftFooter = "-------------------"
)

// Draft renders the purchase-order email deterministically: fixed salutation
// and closing, instruction fields substituted, no external call. The same
// instruction always produces the same draft.
func (a *Agent) Draft(instr contractx.PurchaseInstruction) contractx.DraftMessage {
	subject := fmt.Sprintf("Initial Purchase Order Request - %s", a.cfg.CompanyName)

	supplier := strings.TrimSpace(instr.VendorName)
	if supplier == "" {
		supplier = "Supplier"
	}

	price := strings.TrimSpace(instr.Price)
	if price == "" {
		price = "To be quoted - please provide your current pricing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", supplier)
	b.WriteString("I hope this message finds you well. We are pleased to place a new purchase order with your company. Below are the details of our order:\n\n")
	fmt.Fprintf(&b, "- Product/Service: %s\n", strings.TrimSpace(instr.Item))
	fmt.Fprintf(&b, "- Quantity: %s\n", strings.TrimSpace(instr.Quantity))
	fmt.Fprintf(&b, "- Price: %s\n", price)
	b.WriteString("- Delivery Date: ASAP\n")
	fmt.Fprintf(&b, "- Shipping Address: %s\n\n", a.cfg.ShippingAddress)
	b.WriteString("Please confirm the receipt of this purchase order and provide an estimated delivery date. We look forward to continuing our successful partnership.\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s\n%s", a.cfg.SenderName, a.cfg.CompanyName)

	return contractx.DraftMessage{
		Recipient: strings.TrimSpace(instr.VendorEmail),
		Subject:   subject,
		Body:      b.String(),
	}
}

// RenderDraft produces the block shown to the user for review. The approval
// gate later verifies this exact rendering still embeds the recorded
// recipient, subject, and body before anything is sent.
func RenderDraft(d contractx.DraftMessage) string {
	return fmt.Sprintf("%s\nTo: %s\nSubject: %s\n\n%s\n%s", draftHeader, d.Recipient, d.Subject, d.Body, draftFooter)
}

// DraftRenderedIn reports whether rendering of d appears verbatim in text.
func DraftRenderedIn(text string, d contractx.DraftMessage) bool {
	return strings.Contains(text, "To: "+d.Recipient) &&
		strings.Contains(text, "Subject: "+d.Subject) &&
		strings.Contains(text, d.Body)
}
