package generation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/module/media"
	"github.com/omnimedia/server/internal/module/planner"
	"github.com/omnimedia/server/internal/port/outbound"
)

// DefaultFallbackURL is used when the catalog is empty.
const DefaultFallbackURL = "https://interactive-examples.mdn.mozilla.net/media/cc0-videos/flower.mp4"

const fallbackReason = "backend-unavailable"

// CatalogEntry is a stock clip and the prompt keywords it suits.
type CatalogEntry struct {
	URL      string   `mapstructure:"url"`
	Keywords []string `mapstructure:"keywords"`
}

// FallbackConfig controls substitution when the video backend is down.
type FallbackConfig struct {
	AllowPlaceholder bool           `mapstructure:"allow_placeholder"`
	DefaultURL       string         `mapstructure:"default_url"`
	Catalog          []CatalogEntry `mapstructure:"catalog"`
}

// DefaultFallbackConfig keeps placeholders off.
func DefaultFallbackConfig() *FallbackConfig {
	return &FallbackConfig{
		DefaultURL: DefaultFallbackURL,
		Catalog:    DefaultCatalog(),
	}
}

// DefaultCatalog returns the built-in stock clips.
func DefaultCatalog() []CatalogEntry {
	const base = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/"
	return []CatalogEntry{
		{URL: base + "ForBiggerEscapes.mp4", Keywords: []string{"nature", "forest", "wildlife", "outdoor", "mountain", "rain"}},
		{URL: base + "ForBiggerBlazes.mp4", Keywords: []string{"cinematic", "dramatic", "action", "epic", "slow", "moody"}},
		{URL: base + "ForBiggerFun.mp4", Keywords: []string{"bright", "day", "fun", "travel", "colorful"}},
		{URL: base + "ForBiggerJoyrides.mp4", Keywords: []string{"city", "urban", "street", "night", "driving", "neon"}},
		{URL: base + "SubaruOutbackOnStreetAndDirt.mp4", Keywords: []string{"road", "terrain", "outdoor", "wide", "drone", "landscape"}},
	}
}

// SelectClip scores each entry by keyword substring hits in the prompt.
// The first highest-scoring entry wins, so a zero score picks the first entry.
func SelectClip(prompt string, catalog []CatalogEntry, defaultURL string) string {
	if len(catalog) == 0 {
		if defaultURL == "" {
			return DefaultFallbackURL
		}
		return defaultURL
	}

	lower := strings.ToLower(prompt)
	best, bestScore := 0, -1
	for i, entry := range catalog {
		score := 0
		for _, kw := range entry.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return catalog[best].URL
}

// planLabels are the plan fields copied onto substituted outputs.
var planLabels = []string{"style_preset", "motion_profile", "camera_profile", "scene_count", "duration_sec", "scene_plan"}

func labelsFrom(spec *planner.GenerationSpec) map[string]any {
	out := map[string]any{"prompt_aware": true}
	for _, k := range planLabels {
		if v, ok := spec.Metadata[k]; ok {
			out[k] = v
		}
	}
	return out
}

// applyFallback substitutes output for a video request whose backend was
// unavailable. It tries the external provider, then the placeholder catalog.
// Every substituted response is marked.
func (s *Service) applyFallback(ctx context.Context, req *media.Request, resp *media.Response) {
	if req.Modality != media.ModalityVideo || !resp.Failed() || !errors.Is(resp.Err, media.ErrBackendUnavailable) {
		return
	}

	spec, err := s.planner.CompileSpec(req.Prompt)
	if err != nil {
		return
	}
	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}

	if s.provider != nil && s.provider.Configured() {
		if s.tryProvider(ctx, req, resp, spec) {
			return
		}
	}

	if !s.fallback.AllowPlaceholder {
		resp.Metadata["placeholder_allowed"] = false
		resp.Error = fmt.Sprintf("%s; placeholder clips are disabled (fallback.allow_placeholder)", resp.Error)
		return
	}

	labels := labelsFrom(spec)
	outMeta := maps.Clone(labels)
	outMeta["fallback"] = true
	outMeta["fallback_reason"] = fallbackReason
	outMeta["source"] = "catalog"

	resp.Status = media.StatusCompleted
	resp.Error = ""
	resp.Err = nil
	resp.Outputs = []media.Output{{
		Type:     string(media.ModalityVideo),
		URL:      SelectClip(req.Prompt, s.fallback.Catalog, s.fallback.DefaultURL),
		Metadata: outMeta,
	}}
	maps.Copy(resp.Metadata, labels)
	resp.Metadata["fallback"] = true
	resp.Metadata["fallback_reason"] = fallbackReason
	s.recorder.RecordFallback("placeholder")
	s.logger.Info("served placeholder clip", zap.String("request_id", req.ID))
}

func (s *Service) tryProvider(ctx context.Context, req *media.Request, resp *media.Response, spec *planner.GenerationSpec) bool {
	p := req.Params
	params := map[string]any{
		"width":          orInt(p.Width, 768),
		"height":         orInt(p.Height, 432),
		"num_frames":     orInt(p.NumFrames, spec.NumFrames),
		"fps":            orInt(p.FPS, spec.FPS),
		"style_preset":   spec.Style,
		"motion_profile": spec.Motion,
		"camera_profile": spec.Camera,
	}

	result, err := s.provider.GenerateVideoURL(ctx, &outbound.VideoProviderRequest{
		Prompt:         spec.Prompt,
		Mode:           req.Mode,
		NegativePrompt: req.NegativePrompt,
		Params:         params,
		Metadata:       spec.Metadata,
	})
	if err != nil {
		s.logger.Warn("external provider failed", zap.String("request_id", req.ID), zap.Error(err))
		resp.Metadata["provider_attempted"] = true
		resp.Metadata["provider_error"] = err.Error()
		return false
	}

	labels := labelsFrom(spec)
	outMeta := maps.Clone(labels)
	outMeta["provider"] = true
	outMeta["provider_backend"] = "external"

	resp.Status = media.StatusCompleted
	resp.Error = ""
	resp.Err = nil
	resp.Outputs = []media.Output{{
		Type:     string(media.ModalityVideo),
		URL:      result.URL,
		Metadata: outMeta,
	}}
	resp.Metadata["provider"] = true
	resp.Metadata["provider_backend"] = "external"
	resp.Metadata["prompt_aware"] = true
	s.recorder.RecordFallback("provider")
	return true
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
