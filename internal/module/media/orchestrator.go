package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/module/planner"
)

// Modality defaults applied when a parameter is left at zero.
const (
	defaultImageSize     = 1024
	defaultNumImages     = 1
	defaultGuidanceScale = 7.5
	defaultSteps         = 30
	defaultVideoWidth    = 768
	defaultVideoHeight   = 432
	defaultGIFSize       = 512
)

// DefaultMinGroundingScore is the plan grounding below which a video
// request is rejected.
const DefaultMinGroundingScore = 0.35

// Config holds orchestrator tuning.
type Config struct {
	MinGroundingScore float64  `mapstructure:"min_grounding_score"`
	BlockedTerms      []string `mapstructure:"blocked_terms"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		MinGroundingScore: DefaultMinGroundingScore,
		BlockedTerms:      DefaultBlockedTerms,
	}
}

// OrchestratorConfig holds orchestrator dependencies.
type OrchestratorConfig struct {
	Backend   Backend
	Profiles  *ProfileRegistry
	Planner   *planner.Planner
	GIF       GIFEncoder
	Upscaler  SuperResolver
	Inspector OutputInspector
	Observer  Observer
	Config    *Config
	Logger    *zap.Logger
}

// Orchestrator turns a request into backend calls and a packaged response.
type Orchestrator struct {
	backend   Backend
	profiles  *ProfileRegistry
	planner   *planner.Planner
	gif       GIFEncoder
	upscaler  SuperResolver
	inspector OutputInspector
	observer  Observer
	config    *Config
	logger    *zap.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		backend:   cfg.Backend,
		profiles:  cfg.Profiles,
		planner:   cfg.Planner,
		gif:       cfg.GIF,
		upscaler:  cfg.Upscaler,
		inspector: cfg.Inspector,
		observer:  cfg.Observer,
		config:    cfg.Config,
		logger:    cfg.Logger,
	}
	if o.profiles == nil {
		o.profiles = NewProfileRegistry(DefaultProfiles()...)
	}
	if o.planner == nil {
		o.planner = planner.New(nil)
	}
	if o.gif == nil {
		o.gif = NewFrameGIFEncoder()
	}
	if o.upscaler == nil {
		o.upscaler = LogicalUpscaler{}
	}
	if o.inspector == nil {
		o.inspector = nopInspector{}
	}
	if o.config == nil {
		o.config = DefaultConfig()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.logger = o.logger.Named("orchestrator")
	return o
}

// Planner returns the planner used for video requests.
func (o *Orchestrator) Planner() *planner.Planner {
	return o.planner
}

// Profiles returns the profile registry.
func (o *Orchestrator) Profiles() *ProfileRegistry {
	return o.profiles
}

// Backend returns the configured backend, or nil.
func (o *Orchestrator) Backend() Backend {
	return o.backend
}

// BackendName returns the configured backend's name.
func (o *Orchestrator) BackendName() string {
	if o.backend == nil {
		return "none"
	}
	return o.backend.Name()
}

// Run executes a request. Expected failures are reported on the response
// with StatusFailed rather than returned.
func (o *Orchestrator) Run(ctx context.Context, req *Request) *Response {
	started := time.Now()
	if req == nil {
		return failed("", ErrNilRequest, started)
	}

	profile, outputs, err := o.run(ctx, req)
	if err != nil {
		o.logger.Warn("generation failed",
			zap.String("request_id", req.ID),
			zap.String("modality", string(req.Modality)),
			zap.Error(err))
		return failed(req.ID, err, started)
	}

	hash := sha256.Sum256([]byte(req.Prompt))
	return &Response{
		ID:      req.ID,
		Status:  StatusCompleted,
		Outputs: outputs,
		Metadata: map[string]any{
			"latency_ms":    latencyMS(started),
			"prompt_hash":   hex.EncodeToString(hash[:]),
			"model_profile": profile.Name,
			"model_config":  profile.Summary(),
		},
	}
}

func (o *Orchestrator) run(ctx context.Context, req *Request) (*Profile, []Output, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return nil, nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	if !req.Modality.Valid() {
		return nil, nil, fmt.Errorf("%w: unsupported modality %q", ErrValidation, req.Modality)
	}
	format, err := ResolveReturnFormat(req.ReturnFormat)
	if err != nil {
		return nil, nil, err
	}
	req.ReturnFormat = format
	if err := checkPrompt(req.Prompt, o.config.BlockedTerms); err != nil {
		return nil, nil, err
	}
	if o.backend == nil {
		return nil, nil, fmt.Errorf("%w: no backend configured", ErrBackendUnavailable)
	}

	profile, err := o.profiles.Select(req.Modality, req.Mode)
	if err != nil {
		return nil, nil, err
	}

	var outputs []Output
	switch req.Modality {
	case ModalityImage:
		outputs, err = o.runImage(ctx, req, profile)
	case ModalityVideo:
		outputs, err = o.runVideo(ctx, req, profile)
	case ModalityGIF:
		outputs, err = o.runGIF(ctx, req, profile)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := o.inspector.Inspect(ctx, req, outputs); err != nil {
		return nil, nil, err
	}
	if err := Package(req.ReturnFormat, outputs); err != nil {
		return nil, nil, err
	}
	return profile, outputs, nil
}

func (o *Orchestrator) runImage(ctx context.Context, req *Request, profile *Profile) ([]Output, error) {
	p := req.Params
	width, height := profile.ClampSize(orDefault(p.Width, defaultImageSize), orDefault(p.Height, defaultImageSize))

	params := &ImageParams{
		Prompt:            req.Prompt,
		NegativePrompt:    req.NegativePrompt,
		Width:             width,
		Height:            height,
		NumImages:         orDefault(p.NumImages, defaultNumImages),
		Seed:              p.Seed,
		GuidanceScale:     orDefaultFloat(p.GuidanceScale, defaultGuidanceScale),
		NumInferenceSteps: orDefault(p.NumInferenceSteps, defaultSteps),
		Extra:             p.Extra,
	}

	started := time.Now()
	images, err := o.backend.GenerateImages(ctx, profile, params)
	o.observe(ModalityImage, profile, started, err)
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoOutput
	}

	outputs := make([]Output, 0, len(images))
	for _, img := range images {
		outputs = append(outputs, Output{
			Type: string(ModalityImage),
			URL:  img.URL,
			Raw:  img.Data,
			Metadata: map[string]any{
				"mime_type": imageMIME(img.Format),
				"width":     orDefault(img.Width, width),
				"height":    orDefault(img.Height, height),
			},
		})
	}
	return outputs, nil
}

func (o *Orchestrator) runVideo(ctx context.Context, req *Request, profile *Profile) ([]Output, error) {
	plan, err := o.planner.Plan(req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if plan.GroundingScore < o.config.MinGroundingScore {
		return nil, fmt.Errorf("%w: prompt grounding score %.3f below %.2f",
			ErrValidation, plan.GroundingScore, o.config.MinGroundingScore)
	}

	p := req.Params
	width, height := profile.ClampSize(orDefault(p.Width, defaultVideoWidth), orDefault(p.Height, defaultVideoHeight))
	fps := orDefault(p.FPS, plan.FPS)

	clips := make([]*Video, 0, len(plan.Scenes))
	for _, scene := range plan.Scenes {
		extra := make(map[string]any, len(p.Extra)+3)
		maps.Copy(extra, p.Extra)
		extra["scene_index"] = scene.Index
		extra["scene_start_sec"] = scene.StartSec
		extra["scene_end_sec"] = scene.EndSec

		params := &VideoParams{
			Prompt:            scene.ShotPrompt,
			NegativePrompt:    req.NegativePrompt,
			Width:             width,
			Height:            height,
			NumFrames:         profile.ClampFrames(scene.FrameCount),
			FPS:               fps,
			Seed:              p.Seed,
			GuidanceScale:     orDefaultFloat(p.GuidanceScale, defaultGuidanceScale),
			NumInferenceSteps: orDefault(p.NumInferenceSteps, defaultSteps),
			Extra:             extra,
		}

		o.logger.Debug("dispatching scene",
			zap.String("request_id", req.ID),
			zap.Int("scene", scene.Index),
			zap.Int("frames", params.NumFrames))

		started := time.Now()
		clip, err := o.backend.GenerateVideo(ctx, profile, params)
		o.observe(ModalityVideo, profile, started, err)
		if o.observer != nil {
			o.observer.ObserveSceneCall(profile.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("generate scene %d: %w", scene.Index, err)
		}
		if clip == nil {
			return nil, fmt.Errorf("scene %d: %w", scene.Index, ErrNoOutput)
		}
		clips = append(clips, clip)
	}

	video, err := AssembleScenes(clips, fps)
	if err != nil {
		return nil, err
	}
	metadata := plan.Metadata()
	delivered := 0
	if scenes, ok := metadata["scene_plan"].([]map[string]any); ok {
		for i, clip := range clips {
			scenes[i]["delivered_frames"] = len(clip.Frames)
			delivered += len(clip.Frames)
		}
	}
	if delivered != plan.TotalFrames {
		metadata["planned_frame_count"] = plan.TotalFrames
		metadata["frames_clamped"] = true
	}
	if video, err = o.upscale(ctx, profile, video, metadata); err != nil {
		return nil, err
	}

	metadata["assembled_from_scenes"] = len(clips)
	metadata["frame_count"] = len(video.Frames)
	metadata["fps"] = video.FPS
	metadata["duration_sec"] = math.Round(video.DurationSec()*100) / 100
	metadata["width"] = orDefault(video.Width, width)
	metadata["height"] = orDefault(video.Height, height)
	metadata["mime_type"] = "video/mp4"

	return []Output{{
		Type:     string(ModalityVideo),
		URL:      video.URL,
		Raw:      video.Data,
		Metadata: metadata,
	}}, nil
}

func (o *Orchestrator) runGIF(ctx context.Context, req *Request, profile *Profile) ([]Output, error) {
	spec, err := o.planner.CompileSpec(req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p := req.Params
	width, height := profile.ClampSize(orDefault(p.Width, defaultGIFSize), orDefault(p.Height, defaultGIFSize))

	params := &VideoParams{
		Prompt:            spec.Prompt,
		NegativePrompt:    req.NegativePrompt,
		Width:             width,
		Height:            height,
		NumFrames:         profile.ClampFrames(orDefault(p.NumFrames, spec.NumFrames)),
		FPS:               orDefault(p.FPS, spec.FPS),
		Seed:              p.Seed,
		GuidanceScale:     orDefaultFloat(p.GuidanceScale, defaultGuidanceScale),
		NumInferenceSteps: orDefault(p.NumInferenceSteps, defaultSteps),
		Extra:             p.Extra,
	}

	started := time.Now()
	video, err := o.backend.GenerateVideo(ctx, profile, params)
	o.observe(ModalityGIF, profile, started, err)
	if err != nil {
		return nil, fmt.Errorf("generate gif source: %w", err)
	}
	if video == nil {
		return nil, ErrNoOutput
	}
	if video.FPS <= 0 {
		video.FPS = params.FPS
	}

	data, err := o.gif.EncodeGIF(ctx, video)
	if err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}

	metadata := spec.Metadata
	metadata["fps"] = video.FPS
	metadata["duration_sec"] = math.Round(video.DurationSec()*100) / 100
	metadata["width"] = orDefault(video.Width, width)
	metadata["height"] = orDefault(video.Height, height)
	metadata["frame_count"] = len(video.Frames)
	metadata["mime_type"] = "image/gif"

	return []Output{{
		Type:     string(ModalityGIF),
		Raw:      data,
		Metadata: metadata,
	}}, nil
}

func (o *Orchestrator) upscale(ctx context.Context, profile *Profile, video *Video, metadata map[string]any) (*Video, error) {
	if profile.UpscaleTo == nil {
		return video, nil
	}

	baseW, baseH := video.Width, video.Height
	up, err := o.upscaler.Upscale(ctx, video, profile.UpscaleTo.Width, profile.UpscaleTo.Height)
	if err != nil {
		return nil, fmt.Errorf("upscale: %w", err)
	}
	metadata["base_width"] = baseW
	metadata["base_height"] = baseH
	metadata["super_resolution"] = true
	return up, nil
}

func (o *Orchestrator) observe(modality Modality, profile *Profile, started time.Time, err error) {
	if o.observer == nil {
		return
	}
	o.observer.ObserveBackendCall(modality, profile.Name, time.Since(started).Seconds(), err)
}

func failed(id string, err error, started time.Time) *Response {
	return &Response{
		ID:       id,
		Status:   StatusFailed,
		Outputs:  []Output{},
		Error:    err.Error(),
		Err:      err,
		Metadata: map[string]any{"latency_ms": latencyMS(started)},
	}
}

// ErrorKind classifies a failure for transport mapping.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrPolicy):
		return "policy"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNilRequest):
		return "validation"
	default:
		return "internal"
	}
}

func latencyMS(started time.Time) float64 {
	return math.Round(float64(time.Since(started).Microseconds())/10) / 100
}

func imageMIME(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
