package outbound

import "context"

// VideoProviderRequest is sent to an external video provider.
type VideoProviderRequest struct {
	Prompt         string         `json:"prompt"`
	Mode           string         `json:"mode"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Params         map[string]any `json:"params"`
	Metadata       map[string]any `json:"metadata"`
}

// VideoProviderResult carries the clip URL and the provider's raw reply.
type VideoProviderResult struct {
	URL string
	Raw map[string]any
}

// ProviderProbe is the outcome of a provider health check.
type ProviderProbe struct {
	Configured   bool   `json:"provider_configured"`
	Ready        bool   `json:"provider_ready"`
	HealthOK     bool   `json:"provider_health_ok"`
	HealthStatus int    `json:"provider_health_status,omitempty"`
	Target       string `json:"provider_target,omitempty"`
	Method       string `json:"provider_probe_method,omitempty"`
	SupportsPost bool   `json:"provider_supports_post"`
	Error        string `json:"provider_error,omitempty"`
}

// VideoProviderPort generates a clip through a third-party service that
// returns a URL rather than frames.
type VideoProviderPort interface {
	// Configured reports whether a provider endpoint is set.
	Configured() bool

	// GenerateVideoURL submits a request and returns the clip URL.
	GenerateVideoURL(ctx context.Context, req *VideoProviderRequest) (*VideoProviderResult, error)

	// Probe checks provider reachability.
	Probe(ctx context.Context) *ProviderProbe
}
