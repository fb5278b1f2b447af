package planner

// Style presets inferred from the prompt.
const (
	StyleNatural   = "natural"
	StyleCinematic = "cinematic"
	StyleStylized  = "stylized"
	StyleNoir      = "noir"
	StyleNeon      = "neon"
)

// Motion profiles.
const (
	MotionNormal = "normal"
	MotionSlow   = "slow"
	MotionFast   = "fast"
)

// Camera profiles.
const (
	CameraStandard = "standard"
	CameraAerial   = "aerial"
	CameraCloseUp  = "close-up"
	CameraWide     = "wide"
)

// Scene is one timed segment of a plan.
type Scene struct {
	Index       int     `json:"index"`
	Text        string  `json:"text"`
	DurationSec float64 `json:"duration_sec"`
	ShotPrompt  string  `json:"shot_prompt"`
	FrameCount  int     `json:"frame_count"`
	StartFrame  int     `json:"start_frame"`
	EndFrame    int     `json:"end_frame"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
}

// Plan is the scene breakdown derived from a single prompt.
// Scene frame ranges are contiguous and cover [0, TotalFrames) exactly.
type Plan struct {
	OriginalPrompt   string   `json:"original_prompt"`
	NormalizedPrompt string   `json:"normalized_prompt"`
	Scenes           []Scene  `json:"scenes"`
	FPS              int      `json:"fps"`
	TotalFrames      int      `json:"total_frames"`
	TotalDurationSec float64  `json:"total_duration_sec"`
	Style            string   `json:"style_preset"`
	Motion           string   `json:"motion_profile"`
	Camera           string   `json:"camera_profile"`
	GroundingTokens  []string `json:"grounding_tokens"`
	GroundingScore   float64  `json:"grounding_score"`
}

// SceneCount returns the number of scenes in the plan.
func (p *Plan) SceneCount() int {
	return len(p.Scenes)
}

// Metadata returns the plan as response metadata.
func (p *Plan) Metadata() map[string]any {
	scenes := make([]map[string]any, 0, len(p.Scenes))
	for _, s := range p.Scenes {
		scenes = append(scenes, map[string]any{
			"index":        s.Index,
			"text":         s.Text,
			"duration_sec": round(s.DurationSec, 2),
			"start_sec":    round(s.StartSec, 2),
			"end_sec":      round(s.EndSec, 2),
			"frame_count":  s.FrameCount,
			"start_frame":  s.StartFrame,
			"end_frame":    s.EndFrame,
			"shot_prompt":  s.ShotPrompt,
		})
	}

	return map[string]any{
		"prompt_aware":     true,
		"scene_count":      len(p.Scenes),
		"duration_sec":     round(p.TotalDurationSec, 2),
		"fps":              p.FPS,
		"frame_count":      p.TotalFrames,
		"style_preset":     p.Style,
		"motion_profile":   p.Motion,
		"camera_profile":   p.Camera,
		"grounding_tokens": p.GroundingTokens,
		"grounding_score":  round(p.GroundingScore, 3),
		"scene_plan":       scenes,
	}
}

// GenerationSpec is a plan compiled into a single prompt for backends
// that take one request for the whole clip.
type GenerationSpec struct {
	Prompt    string
	FPS       int
	NumFrames int
	Style     string
	Motion    string
	Camera    string
	Metadata  map[string]any
}
