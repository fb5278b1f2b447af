package media

import (
	"fmt"
	"strings"
)

// DefaultBlockedTerms are rejected before any backend call.
var DefaultBlockedTerms = []string{"csam", "child sexual", "exploitative sexual"}

// checkPrompt rejects prompts containing a blocked term.
func checkPrompt(prompt string, blocked []string) error {
	lower := strings.ToLower(prompt)
	for _, term := range blocked {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return fmt.Errorf("%w: prompt blocked by safety pre-filter", ErrPolicy)
		}
	}
	return nil
}
