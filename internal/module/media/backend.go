package media

import (
	"context"
)

// Backend runs model inference.
// Implementations wrap ErrBackendUnavailable when the runtime cannot serve.
type Backend interface {
	Name() string
	GenerateImages(ctx context.Context, profile *Profile, params *ImageParams) ([]Image, error)
	GenerateVideo(ctx context.Context, profile *Profile, params *VideoParams) (*Video, error)
}

// GIFEncoder converts a clip to a looping GIF.
type GIFEncoder interface {
	EncodeGIF(ctx context.Context, video *Video) ([]byte, error)
}

// SuperResolver upscales a clip to the target size.
type SuperResolver interface {
	Upscale(ctx context.Context, video *Video, width, height int) (*Video, error)
}

// OutputInspector checks outputs after generation. Returning an error
// fails the request.
type OutputInspector interface {
	Inspect(ctx context.Context, req *Request, outputs []Output) error
}

// Observer receives per-call timings. Optional.
type Observer interface {
	ObserveBackendCall(modality Modality, profile string, seconds float64, err error)
	ObserveSceneCall(profile string)
}

type nopInspector struct{}

func (nopInspector) Inspect(context.Context, *Request, []Output) error { return nil }
