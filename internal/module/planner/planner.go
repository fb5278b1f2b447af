package planner

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ErrEmptyPrompt is returned when the prompt has no content after normalization.
var ErrEmptyPrompt = errors.New("prompt is required")

const (
	minDurationSec  = 4.0
	maxDurationSec  = 60.0
	perSceneBonus   = 2.5
	minSceneSec     = 1.0
	minTotalFrames  = 16
	previewMaxChars = 700
)

var (
	wordPattern       = regexp.MustCompile(`\w+`)
	horizontalSpace   = regexp.MustCompile(`[^\S\n]+`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
)

// Planner turns free-text prompts into timed scene plans.
type Planner struct {
	classifier Classifier
}

// New creates a planner. A nil classifier selects the keyword classifier.
func New(classifier Classifier) *Planner {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Planner{classifier: classifier}
}

// Plan builds a scene plan for the prompt.
func (p *Planner) Plan(prompt string) (*Plan, error) {
	normalized := collapse(prompt)
	if normalized == "" {
		return nil, ErrEmptyPrompt
	}

	style := p.classifier.Style(normalized)
	motion := p.classifier.Motion(normalized)
	camera := p.classifier.Camera(normalized)

	texts := p.classifier.Segment(lineNormalize(prompt))
	if len(texts) == 0 {
		texts = []string{normalized}
	}

	duration := estimateDuration(normalized, len(texts))
	perScene := distributeDuration(duration, len(texts))
	fps := framesPerSecond(motion)
	totalFrames := max(minTotalFrames, int(math.RoundToEven(duration*float64(fps))))
	if totalFrames < len(texts) {
		totalFrames = len(texts)
	}
	frames := allocateFrames(perScene, fps, totalFrames)

	scenes := make([]Scene, len(texts))
	cursor := 0
	for i, text := range texts {
		start := cursor
		end := start + frames[i] - 1
		scenes[i] = Scene{
			Index:       i + 1,
			Text:        text,
			DurationSec: perScene[i],
			ShotPrompt:  shotPrompt(text, style, motion, camera),
			FrameCount:  frames[i],
			StartFrame:  start,
			EndFrame:    end,
			StartSec:    float64(start) / float64(fps),
			EndSec:      float64(end+1) / float64(fps),
		}
		cursor = end + 1
	}

	tokens := groundingTokens(normalized)

	return &Plan{
		OriginalPrompt:   prompt,
		NormalizedPrompt: normalized,
		Scenes:           scenes,
		FPS:              fps,
		TotalFrames:      totalFrames,
		TotalDurationSec: duration,
		Style:            style,
		Motion:           motion,
		Camera:           camera,
		GroundingTokens:  tokens,
		GroundingScore:   groundingScore(tokens, scenes),
	}, nil
}

// CompileSpec compiles the whole plan into one storyboard prompt.
func (p *Planner) CompileSpec(prompt string) (*GenerationSpec, error) {
	plan, err := p.Plan(prompt)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a video storyboard with %d scenes. Total duration target: %s seconds.",
		plan.SceneCount(), formatSeconds(plan.TotalDurationSec))
	for _, s := range plan.Scenes {
		fmt.Fprintf(&b, "\nScene %d: %s", s.Index, s.ShotPrompt)
	}
	compiled := b.String()

	metadata := plan.Metadata()
	preview := compiled
	if len(preview) > previewMaxChars {
		preview = preview[:previewMaxChars]
	}
	metadata["compiled_prompt_preview"] = preview

	return &GenerationSpec{
		Prompt:    compiled,
		FPS:       plan.FPS,
		NumFrames: plan.TotalFrames,
		Style:     plan.Style,
		Motion:    plan.Motion,
		Camera:    plan.Camera,
		Metadata:  metadata,
	}, nil
}

func framesPerSecond(motion string) int {
	switch motion {
	case MotionSlow:
		return 10
	case MotionFast:
		return 16
	default:
		return 12
	}
}

// estimateDuration maps word count to a base tier and adds time per extra scene.
func estimateDuration(prompt string, sceneCount int) float64 {
	words := len(wordPattern.FindAllString(prompt, -1))

	var base float64
	switch {
	case words <= 12:
		base = 5
	case words <= 40:
		base = 10
	case words <= 100:
		base = 18
	default:
		base = 28
	}

	d := base + float64(max(0, sceneCount-1))*perSceneBonus
	return math.Max(minDurationSec, math.Min(maxDurationSec, d))
}

// distributeDuration splits total across scenes, emphasising the first and
// last scene at the expense of the interior ones.
func distributeDuration(total float64, n int) []float64 {
	if n <= 1 {
		return []float64{total}
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = total / float64(n)
	}

	emphasis := math.Min(2, total*0.1)
	values[0] += emphasis
	values[n-1] += emphasis

	reduction := 2 * emphasis / float64(max(1, n-2))
	for i := 1; i < n-1; i++ {
		values[i] = math.Max(minSceneSec, values[i]-reduction)
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum <= 0 {
		for i := range values {
			values[i] = total / float64(n)
		}
		return values
	}

	scale := total / sum
	for i := range values {
		values[i] = math.Max(minSceneSec, values[i]*scale)
	}
	return values
}

// allocateFrames converts scene durations to frame counts summing to total.
// Each scene keeps at least one frame; total must be >= len(durations).
func allocateFrames(durations []float64, fps, total int) []int {
	n := len(durations)
	if n == 0 {
		return nil
	}

	frames := make([]int, n)
	sum := 0
	for i, d := range durations {
		frames[i] = max(1, int(math.RoundToEven(d*float64(fps))))
		sum += frames[i]
	}

	drift := total - sum
	// Cyclic +1/-1 per scene, bounded by the number of steps a full
	// reconciliation can take.
	limit := abs(drift)*n + n
	for step := 0; drift != 0 && step < limit; step++ {
		slot := step % n
		switch {
		case drift > 0:
			frames[slot]++
			drift--
		case frames[slot] > 1:
			frames[slot]--
			drift++
		}
	}
	return frames
}

func shotPrompt(text, style, motion, camera string) string {
	return fmt.Sprintf("%s. Style: %s. Motion: %s. Camera: %s. Keep subject and environment faithful to the scene description.",
		strings.TrimSpace(text), style, motion, camera)
}

// lineNormalize collapses horizontal whitespace but keeps single line
// breaks so list-style prompts can still be segmented.
func lineNormalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.1f", math.Round(v*10)/10)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
