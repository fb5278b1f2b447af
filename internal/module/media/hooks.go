package media

import (
	"fmt"
	"strings"
)

// Hooks validate and mark outputs before they are stored.
type Hooks interface {
	Name() string
	ValidateOutput(mediaType string, data []byte, metadata map[string]any, safetyLevel string) error
	ApplyWatermark(mediaType string, data []byte, metadata map[string]any, enabled bool) ([]byte, map[string]any, error)
}

// HooksConfig holds limits for the default hooks.
type HooksConfig struct {
	MaxOutputBytes      int    `mapstructure:"max_output_bytes"`
	StrictMaxVideoBytes int    `mapstructure:"strict_max_video_bytes"`
	WatermarkMode       string `mapstructure:"watermark_mode"`
}

// DefaultHooksConfig returns the default limits.
func DefaultHooksConfig() *HooksConfig {
	return &HooksConfig{
		MaxOutputBytes:      64 << 20,
		StrictMaxVideoBytes: 32 << 20,
		WatermarkMode:       "logical",
	}
}

// DefaultHooks enforces size policy and records a logical watermark in
// metadata. Pixel overlays are left to a dedicated implementation.
type DefaultHooks struct {
	config *HooksConfig
}

// NewDefaultHooks creates the default hooks.
func NewDefaultHooks(cfg *HooksConfig) *DefaultHooks {
	if cfg == nil {
		cfg = DefaultHooksConfig()
	}
	return &DefaultHooks{config: cfg}
}

// Name returns the hooks implementation name.
func (h *DefaultHooks) Name() string {
	return "default"
}

// ValidateOutput rejects empty or oversized payloads.
func (h *DefaultHooks) ValidateOutput(mediaType string, data []byte, _ map[string]any, safetyLevel string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty %s output", ErrPolicy, mediaType)
	}
	if h.config.MaxOutputBytes > 0 && len(data) > h.config.MaxOutputBytes {
		return fmt.Errorf("%w: %s output exceeds %d bytes", ErrPolicy, mediaType, h.config.MaxOutputBytes)
	}

	level := strings.ToLower(safetyLevel)
	if (level == "strict" || level == "high") && mediaType == string(ModalityVideo) &&
		h.config.StrictMaxVideoBytes > 0 && len(data) > h.config.StrictMaxVideoBytes {
		return fmt.Errorf("%w: video output exceeds strict size limit", ErrPolicy)
	}
	return nil
}

// ApplyWatermark marks the metadata; bytes are returned unchanged.
func (h *DefaultHooks) ApplyWatermark(_ string, data []byte, metadata map[string]any, enabled bool) ([]byte, map[string]any, error) {
	out := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	out["watermark_applied"] = enabled
	if enabled {
		out["watermark_mode"] = h.config.WatermarkMode
	}
	return data, out, nil
}

var _ Hooks = (*DefaultHooks)(nil)
