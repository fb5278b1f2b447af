package planner

import (
	"regexp"
	"strings"
)

// Classifier segments a prompt into scenes and labels its look.
// The keyword implementation is the default; a model-backed one can be
// swapped in without touching the timing logic.
type Classifier interface {
	Segment(prompt string) []string
	Style(prompt string) string
	Motion(prompt string) string
	Camera(prompt string) string
}

// MaxScenes caps the number of scenes a prompt may produce.
const MaxScenes = 8

// minSceneWords is the fragment size below which a chunk is folded into
// the preceding scene.
const minSceneWords = 4

var (
	sceneMarkerPattern = regexp.MustCompile(`(?i)\bscene\s*\d+\s*[:\-]`)
	sceneSplitPattern  = regexp.MustCompile(`(?i)(?:\n\s*scene\s*\d+[:\-]|\n\s*\d+[\)\.]\s+|\n\s*[-*]\s+|\n+|\s+then\s+|\s+next\s+|\s+cut\s+to\s+)`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

type rule struct {
	label   string
	pattern *regexp.Regexp
}

// First match wins, in slice order.
var (
	styleRules = []rule{
		{StyleCinematic, regexp.MustCompile(`\b(cinematic|film|movie|dramatic|epic|anamorphic)\b`)},
		{StyleStylized, regexp.MustCompile(`\b(anime|cartoon|pixar|stylized|illustrated)\b`)},
		{StyleNoir, regexp.MustCompile(`\b(noir|monochrome|black\s*and\s*white|gritty)\b`)},
		{StyleNeon, regexp.MustCompile(`\b(neon|cyberpunk|sci[-\s]?fi|futuristic)\b`)},
	}
	motionRules = []rule{
		{MotionSlow, regexp.MustCompile(`\b(slow\s*motion|slow-mo|dramatic\s*slow)\b`)},
		{MotionFast, regexp.MustCompile(`\b(fast|action|chase|dynamic|high\s*energy)\b`)},
	}
	cameraRules = []rule{
		{CameraAerial, regexp.MustCompile(`\b(aerial|drone|overhead|bird'?s\s*eye)\b`)},
		{CameraCloseUp, regexp.MustCompile(`\b(close\s*up|macro|portrait)\b`)},
		{CameraWide, regexp.MustCompile(`\b(wide|landscape|establishing\s*shot)\b`)},
	}
)

// KeywordClassifier labels prompts with fixed keyword vocabularies.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Segment splits a prompt into at most MaxScenes scene texts.
// Explicit "Scene N:" markers take precedence over connective splitting.
func (k *KeywordClassifier) Segment(prompt string) []string {
	if parts := splitOnMarkers(prompt); len(parts) > 0 {
		return capScenes(parts)
	}

	var chunks []string
	for _, part := range sceneSplitPattern.Split(prompt, -1) {
		if chunk := cleanChunk(part); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	switch len(chunks) {
	case 0:
		return []string{collapse(prompt)}
	case 1:
		return chunks
	}

	merged := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(strings.Fields(chunk)) < minSceneWords && len(merged) > 0 {
			merged[len(merged)-1] = strings.TrimSpace(merged[len(merged)-1] + ", " + chunk)
			continue
		}
		merged = append(merged, chunk)
	}
	return capScenes(merged)
}

// Style returns the style preset for the prompt.
func (k *KeywordClassifier) Style(prompt string) string {
	return firstMatch(styleRules, prompt, StyleNatural)
}

// Motion returns the motion profile for the prompt.
func (k *KeywordClassifier) Motion(prompt string) string {
	return firstMatch(motionRules, prompt, MotionNormal)
}

// Camera returns the camera profile for the prompt.
func (k *KeywordClassifier) Camera(prompt string) string {
	return firstMatch(cameraRules, prompt, CameraStandard)
}

func splitOnMarkers(prompt string) []string {
	markers := sceneMarkerPattern.FindAllStringIndex(prompt, -1)
	if len(markers) == 0 {
		return nil
	}

	var parts []string
	for i, m := range markers {
		end := len(prompt)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		if chunk := cleanChunk(prompt[m[1]:end]); chunk != "" {
			parts = append(parts, chunk)
		}
	}
	return parts
}

func firstMatch(rules []rule, prompt, fallback string) string {
	lower := strings.ToLower(prompt)
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.label
		}
	}
	return fallback
}

func cleanChunk(s string) string {
	return strings.Trim(collapse(s), " ,.-")
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func capScenes(parts []string) []string {
	if len(parts) > MaxScenes {
		return parts[:MaxScenes]
	}
	return parts
}

var _ Classifier = (*KeywordClassifier)(nil)
