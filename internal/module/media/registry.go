package media

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Profile names.
const (
	ProfileImageDefault = "image_default"
	ProfileImageHD      = "image_hd"
	ProfileVideoDefault = "video_default"
	ProfileVideoLong    = "video_long"
	ProfileVideo4K      = "video_4k"
)

// Profile describes a routable model configuration.
type Profile struct {
	Name      string         `json:"name" mapstructure:"name"`
	Model     string         `json:"model" mapstructure:"model"`
	Kind      string         `json:"kind" mapstructure:"kind"` // image or video
	MaxWidth  int            `json:"max_width" mapstructure:"max_width"`
	MaxHeight int            `json:"max_height" mapstructure:"max_height"`
	MaxFrames int            `json:"max_frames,omitempty" mapstructure:"max_frames"`
	UpscaleTo *Resolution    `json:"upscale_to,omitempty" mapstructure:"upscale_to"`
	Options   map[string]any `json:"options,omitempty" mapstructure:"options"`
}

// Resolution is a width/height pair.
type Resolution struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// ClampSize limits width and height to the profile caps.
func (p *Profile) ClampSize(width, height int) (int, int) {
	if p.MaxWidth > 0 && width > p.MaxWidth {
		width = p.MaxWidth
	}
	if p.MaxHeight > 0 && height > p.MaxHeight {
		height = p.MaxHeight
	}
	return width, height
}

// ClampFrames limits a frame count to the profile cap.
func (p *Profile) ClampFrames(frames int) int {
	if p.MaxFrames > 0 && frames > p.MaxFrames {
		return p.MaxFrames
	}
	return frames
}

// Summary returns the profile as response metadata.
func (p *Profile) Summary() map[string]any {
	out := map[string]any{
		"name":       p.Name,
		"model":      p.Model,
		"kind":       p.Kind,
		"max_width":  p.MaxWidth,
		"max_height": p.MaxHeight,
	}
	if p.MaxFrames > 0 {
		out["max_frames"] = p.MaxFrames
	}
	if p.UpscaleTo != nil {
		out["upscale_to"] = fmt.Sprintf("%dx%d", p.UpscaleTo.Width, p.UpscaleTo.Height)
	}
	return out
}

// DefaultProfiles returns the built-in profile table.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: ProfileImageDefault, Model: "Qwen/Qwen-Image", Kind: "image", MaxWidth: 1536, MaxHeight: 1536},
		{Name: ProfileImageHD, Model: "Qwen/Qwen-Image-2512", Kind: "image", MaxWidth: 2512, MaxHeight: 2512},
		{Name: ProfileVideoDefault, Model: "omni/video-default", Kind: "video", MaxWidth: 1024, MaxHeight: 576, MaxFrames: 64},
		{Name: ProfileVideoLong, Model: "omni/video-long", Kind: "video", MaxWidth: 768, MaxHeight: 432, MaxFrames: 120},
		{
			Name: ProfileVideo4K, Model: "omni/video-4k-sr", Kind: "video", MaxWidth: 1024, MaxHeight: 576, MaxFrames: 64,
			UpscaleTo: &Resolution{Width: 3840, Height: 2160},
		},
	}
}

var (
	hdModes   = map[string]bool{"hd": true, "quality": true}
	longModes = map[string]bool{"long": true, "extended": true}
	uhdModes  = map[string]bool{"4k": true, "ultra": true, "highres": true}
)

// ProfileRegistry holds the routable profiles. It is built once at
// startup and passed to the orchestrator.
type ProfileRegistry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewProfileRegistry creates a registry seeded with the given profiles.
func NewProfileRegistry(profiles ...Profile) *ProfileRegistry {
	r := &ProfileRegistry{profiles: make(map[string]*Profile)}
	for _, p := range profiles {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a profile.
func (r *ProfileRegistry) Register(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = &p
}

// Get returns a profile by name.
func (r *ProfileRegistry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// All returns all profiles sorted by name.
func (r *ProfileRegistry) All() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Select routes a modality and mode to a profile.
func (r *ProfileRegistry) Select(modality Modality, mode string) (*Profile, error) {
	return r.Get(RouteProfile(modality, mode))
}

// RouteProfile returns the profile name for a modality and mode.
func RouteProfile(modality Modality, mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if modality == ModalityImage {
		if hdModes[mode] {
			return ProfileImageHD
		}
		return ProfileImageDefault
	}

	switch {
	case longModes[mode]:
		return ProfileVideoLong
	case uhdModes[mode]:
		return ProfileVideo4K
	default:
		return ProfileVideoDefault
	}
}
