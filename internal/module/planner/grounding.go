package planner

import (
	"regexp"
	"strings"
)

const maxGroundingTokens = 12

var groundingWordPattern = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z'-]{2,}\b`)

var groundingStopWords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "into": {}, "from": {}, "that": {}, "this": {},
	"then": {}, "next": {}, "scene": {}, "video": {}, "make": {}, "create": {},
	"generate": {}, "show": {}, "shot": {}, "shots": {}, "camera": {}, "style": {},
	"motion": {}, "slow": {}, "fast": {}, "for": {}, "of": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "a": {}, "an": {},
}

// groundingTokens returns up to 12 unique content words in prompt order.
func groundingTokens(prompt string) []string {
	tokens := make([]string, 0, maxGroundingTokens)
	seen := make(map[string]struct{})
	for _, word := range groundingWordPattern.FindAllString(strings.ToLower(prompt), -1) {
		if _, stop := groundingStopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
		if len(tokens) >= maxGroundingTokens {
			break
		}
	}
	return tokens
}

// groundingScore is the fraction of tokens found in the compiled shot prompts.
func groundingScore(tokens []string, scenes []Scene) float64 {
	if len(tokens) == 0 {
		return 1
	}

	shots := make([]string, len(scenes))
	for i, s := range scenes {
		shots[i] = strings.ToLower(s.ShotPrompt)
	}
	compiled := strings.Join(shots, " ")

	hits := 0
	for _, t := range tokens {
		if strings.Contains(compiled, t) {
			hits++
		}
	}

	score := float64(hits) / float64(len(tokens))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return round(score, 3)
}
