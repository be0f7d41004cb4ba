package knowledge

import (
	"context"
	"fmt"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

// SeedDocument is one historical email loaded into the knowledge base.
type SeedDocument struct {
	Text     string
	Metadata map[string]string
}

// DemoDocuments is the sample vendor correspondence used when no real corpus
// has been ingested yet.
func DemoDocuments() []SeedDocument {
	return []SeedDocument{
		{
			Text: "Hi team, the brick delivery scheduled for this week is delayed by three days because of a trucking shortage. We now expect it on site Thursday. Apologies for the inconvenience.",
			Metadata: map[string]string{
				"sender": "Bob (BrickCo)",
				"date":   "2023-10-25",
				"topic":  "delivery delay",
			},
		},
		{
			Text: "Please find attached invoice #4521 for the cement order placed last month, totaling $2,340. Payment is due within 30 days.",
			Metadata: map[string]string{
				"sender": "Alice (SuppliesInc)",
				"date":   "2023-10-26",
				"topic":  "invoice",
			},
		},
		{
			Text: "Unfortunately the treated lumber you asked about is out of stock until the end of the month. We can offer untreated boards immediately, or reserve treated stock for a November delivery.",
			Metadata: map[string]string{
				"sender": "Charlie (WoodWorks)",
				"date":   "2023-10-27",
				"topic":  "stock availability",
			},
		},
	}
}

// Seed loads docs into the store, stopping at the first failure.
func Seed(ctx context.Context, store contractx.KnowledgeStore, docs []SeedDocument) error {
	for i, doc := range docs {
		if err := store.AddDocument(ctx, doc.Text, doc.Metadata); err != nil {
			return fmt.Errorf("seed document %d: %w", i, err)
		}
	}
	return nil
}
