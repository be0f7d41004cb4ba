// Package extract pulls purchase-order fields out of free-form utterances.
// Extraction is deterministic by design: the coordinator's last-write-wins
// merge and the approval gate both depend on reproducible parses.
package extract

import (
	"regexp"
	"strings"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// $12, $12.50, "12.50 dollars", "5 each"
	priceDollarRe = regexp.MustCompile(`\$\s*\d+(?:\.\d+)?`)
	priceWordRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:dollars|usd|each|apiece|per\s+\w+)\b`)

	// dimension tokens like 2x4 are lumber sizes, not quantities
	dimensionRe = regexp.MustCompile(`\b\d+\s*x\s*\d+\b`)

	quantityRe = regexp.MustCompile(`(?:^|[^\w$.])(\d+)\b`)

	unitWords = `(?:pieces?|pcs|units?|bags?|sheets?|boards?|boxes?|rolls?|pallets?)`

	itemAfterVerbRe = regexp.MustCompile(`(?i)\b(?:order|buy|purchase|procure)\s+(?:some\s+|more\s+)?(?:\d+\s+)?(?:` + unitWords + `\s+of\s+)?([a-zA-Z][a-zA-Z0-9 \-]*?)(?:\s+(?:from|at|for)\b|[,.!?]|$)`)
	itemUnitsOfRe   = regexp.MustCompile(`(?i)\b\d+\s+` + unitWords + `\s+of\s+([a-zA-Z][a-zA-Z0-9 \-]*?)(?:\s+(?:from|at|for)\b|[,.!?]|$)`)

	vendorNameRe = regexp.MustCompile(`(?i)\bfrom\s+([A-Z][\w&'.\-]*(?:\s+[A-Z][\w&'.\-]*)*)`)

	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	unitOnlyRe   = regexp.MustCompile(`(?i)^` + unitWords + `$`)

	itemNoiseWords = map[string]bool{
		"some": true, "more": true, "the": true, "a": true, "an": true, "of": true,
	}
)

// Fields extracts every purchase-order field mentioned in text. Fields not
// mentioned stay empty.
func Fields(text string) contractx.FieldPatch {
	var patch contractx.FieldPatch

	masked := text

	if email := emailRe.FindString(masked); email != "" {
		patch.VendorEmail = email
		masked = emailRe.ReplaceAllString(masked, " ")
	}

	if price := priceDollarRe.FindString(masked); price != "" {
		patch.Price = strings.Join(strings.Fields(price), "")
		masked = priceDollarRe.ReplaceAllString(masked, " ")
	} else if m := priceWordRe.FindStringSubmatch(masked); m != nil {
		patch.Price = "$" + m[1]
		masked = priceWordRe.ReplaceAllString(masked, " ")
	}

	maskedForQty := dimensionRe.ReplaceAllString(masked, " ")
	if m := quantityRe.FindStringSubmatch(maskedForQty); m != nil {
		patch.Quantity = m[1]
	}

	patch.Item = item(masked)
	patch.VendorName = vendorName(masked, patch.VendorEmail)

	return patch
}

// Subject returns the noun the patch is about, used to resolve anaphoric
// references ("it", "that order") in follow-up questions.
func Subject(patch contractx.FieldPatch) string {
	return patch.Item
}

func item(text string) string {
	for _, re := range []*regexp.Regexp{itemAfterVerbRe, itemUnitsOfRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if cleaned := cleanItem(m[1]); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

func cleanItem(raw string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	kept := fields[:0]
	for _, f := range fields {
		if itemNoiseWords[f] || digitsOnlyRe.MatchString(f) {
			continue
		}
		kept = append(kept, f)
	}
	// "100 pieces" alone names a unit, not an item
	if len(kept) == 1 && unitOnlyRe.MatchString(kept[0]) {
		return ""
	}
	return strings.Join(kept, " ")
}

func vendorName(text, email string) string {
	m := vendorNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if name == "" || strings.Contains(name, "@") || name == email {
		return ""
	}
	return name
}
