package media

import "fmt"

// Modality is the kind of media a request asks for.
type Modality string

const (
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityGIF   Modality = "gif"
)

// Valid reports whether m is a supported modality.
func (m Modality) Valid() bool {
	switch m {
	case ModalityImage, ModalityVideo, ModalityGIF:
		return true
	}
	return false
}

// ReturnFormat controls how outputs are packaged.
type ReturnFormat string

const (
	ReturnURL    ReturnFormat = "url"
	ReturnBase64 ReturnFormat = "base64"
	ReturnBytes  ReturnFormat = "bytes"
)

// ResolveReturnFormat maps the empty format to url and rejects anything
// other than url, base64 or bytes.
func ResolveReturnFormat(f ReturnFormat) (ReturnFormat, error) {
	switch f {
	case "":
		return ReturnURL, nil
	case ReturnURL, ReturnBase64, ReturnBytes:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported return format %q", ErrValidation, f)
}

// Status is the terminal state of a generation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Params holds the tunable generation parameters. Zero values mean "use the
// modality default".
type Params struct {
	Width             int            `json:"width,omitempty"`
	Height            int            `json:"height,omitempty"`
	NumFrames         int            `json:"num_frames,omitempty"`
	NumImages         int            `json:"num_images,omitempty"`
	FPS               int            `json:"fps,omitempty"`
	Seed              *int64         `json:"seed,omitempty"`
	GuidanceScale     float64        `json:"guidance_scale,omitempty"`
	NumInferenceSteps int            `json:"num_inference_steps,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Request is a single generation request.
type Request struct {
	ID             string       `json:"request_id"`
	Modality       Modality     `json:"modality"`
	Mode           string       `json:"mode"`
	Prompt         string       `json:"prompt"`
	NegativePrompt string       `json:"negative_prompt,omitempty"`
	Params         Params       `json:"params"`
	SafetyLevel    string       `json:"safety_level"`
	Watermark      bool         `json:"watermark"`
	ReturnFormat   ReturnFormat `json:"return_format"`
}

// Output is one produced artifact. Raw carries bytes that still need
// packaging and is never serialized.
type Output struct {
	Type     string         `json:"type"`
	URL      string         `json:"url,omitempty"`
	Data     string         `json:"data,omitempty"`
	Raw      []byte         `json:"-"`
	Metadata map[string]any `json:"metadata"`
}

// Response is the result of running a request.
type Response struct {
	ID       string         `json:"request_id"`
	Status   Status         `json:"status"`
	Outputs  []Output       `json:"outputs"`
	Error    string         `json:"error,omitempty"`
	Err      error          `json:"-"`
	Metadata map[string]any `json:"metadata"`
}

// Failed reports whether the response carries an error.
func (r *Response) Failed() bool {
	return r.Status == StatusFailed
}

// Image is a single image returned by a backend.
type Image struct {
	Data   []byte `json:"data,omitempty"`
	URL    string `json:"url,omitempty"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Video is a clip returned by a backend. Frames are opaque encoded images;
// Data is the encoded container payload when the backend produced one.
type Video struct {
	Frames [][]byte `json:"frames,omitempty"`
	FPS    int      `json:"fps"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
	Data   []byte   `json:"data,omitempty"`
	URL    string   `json:"url,omitempty"`
	Format string   `json:"format,omitempty"`
}

// DurationSec returns the clip length implied by frames and fps.
func (v *Video) DurationSec() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(len(v.Frames)) / float64(v.FPS)
}

// ImageParams is what a backend receives for an image call.
type ImageParams struct {
	Prompt            string
	NegativePrompt    string
	Width             int
	Height            int
	NumImages         int
	Seed              *int64
	GuidanceScale     float64
	NumInferenceSteps int
	Extra             map[string]any
}

// VideoParams is what a backend receives for a video call.
type VideoParams struct {
	Prompt            string
	NegativePrompt    string
	Width             int
	Height            int
	NumFrames         int
	FPS               int
	Seed              *int64
	GuidanceScale     float64
	NumInferenceSteps int
	Extra             map[string]any
}
