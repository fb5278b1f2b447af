package generation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/omnimedia/server/internal/module/media"
)

// GenerateBody is the client-facing request payload.
type GenerateBody struct {
	Prompt         string         `json:"prompt" binding:"required"`
	Mode           string         `json:"mode"`
	NegativePrompt string         `json:"negative_prompt"`
	Params         map[string]any `json:"params"`
	SafetyLevel    string         `json:"safety_level"`
	Watermark      *bool          `json:"watermark"`
	ReturnFormat   string         `json:"return_format"`
}

// knownParams are lifted into typed fields; every other key goes to Extra.
var knownParams = map[string]struct{}{
	"width": {}, "height": {}, "num_frames": {}, "fps": {}, "seed": {},
	"guidance_scale": {}, "num_inference_steps": {}, "num_images": {},
}

// ToRequest converts a body into an orchestrator request.
func ToRequest(modality media.Modality, body *GenerateBody, id string) (*media.Request, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: body is required", media.ErrValidation)
	}
	if !modality.Valid() {
		return nil, fmt.Errorf("%w: unsupported modality %q", media.ErrValidation, modality)
	}
	if strings.TrimSpace(body.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", media.ErrValidation)
	}

	format, err := media.ResolveReturnFormat(media.ReturnFormat(body.ReturnFormat))
	if err != nil {
		return nil, err
	}
	params, err := toParams(body.Params)
	if err != nil {
		return nil, err
	}

	watermark := true
	if body.Watermark != nil {
		watermark = *body.Watermark
	}

	return &media.Request{
		ID:             id,
		Modality:       modality,
		Mode:           orString(body.Mode, "default"),
		Prompt:         body.Prompt,
		NegativePrompt: body.NegativePrompt,
		Params:         params,
		SafetyLevel:    orString(body.SafetyLevel, "default"),
		Watermark:      watermark,
		ReturnFormat:   format,
	}, nil
}

func toParams(raw map[string]any) (media.Params, error) {
	var p media.Params
	var err error
	intField := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := raw[key]; ok && v != nil {
			*dst, err = toInt(key, v)
		}
	}

	intField("width", &p.Width)
	intField("height", &p.Height)
	intField("num_frames", &p.NumFrames)
	intField("fps", &p.FPS)
	intField("num_images", &p.NumImages)
	intField("num_inference_steps", &p.NumInferenceSteps)
	if err != nil {
		return p, err
	}

	if v, ok := raw["seed"]; ok && v != nil {
		seed, serr := toInt64("seed", v)
		if serr != nil {
			return p, serr
		}
		p.Seed = &seed
	}
	if v, ok := raw["guidance_scale"]; ok && v != nil {
		f, ferr := toFloat("guidance_scale", v)
		if ferr != nil {
			return p, ferr
		}
		p.GuidanceScale = f
	}

	for k, v := range raw {
		if _, known := knownParams[k]; known {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return p, nil
}

func toFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", media.ErrValidation, key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", media.ErrValidation, key)
	}
}

func toInt64(key string, v any) (int64, error) {
	f, err := toFloat(key, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %s must be an integer", media.ErrValidation, key)
	}
	return int64(f), nil
}

func toInt(key string, v any) (int, error) {
	n, err := toInt64(key, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", media.ErrValidation, key)
	}
	return int(n), nil
}

func orString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// InferExtension picks a file extension for a stored output.
func InferExtension(mediaType string, metadata map[string]any) string {
	mime, _ := metadata["mime_type"].(string)
	mime = strings.ToLower(mime)
	switch mediaType {
	case string(media.ModalityImage):
		switch {
		case strings.Contains(mime, "jpeg"), strings.Contains(mime, "jpg"):
			return "jpg"
		case strings.Contains(mime, "webp"):
			return "webp"
		default:
			return "png"
		}
	case string(media.ModalityGIF):
		return "gif"
	case string(media.ModalityVideo):
		return "mp4"
	default:
		return "bin"
	}
}
