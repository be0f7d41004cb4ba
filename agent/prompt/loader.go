package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/query.txt
	queryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
	Query      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Query:      strings.TrimSpace(queryRaw),
	}
}
