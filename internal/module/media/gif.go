package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrNoFrames is returned when a clip has nothing to encode.
var ErrNoFrames = errors.New("video has no frames")

// FrameGIFEncoder decodes PNG/JPEG frames and writes a looping GIF.
type FrameGIFEncoder struct {
	// LoopCount follows image/gif: 0 loops forever.
	LoopCount int
}

// NewFrameGIFEncoder creates an encoder producing an infinitely looping GIF.
func NewFrameGIFEncoder() *FrameGIFEncoder {
	return &FrameGIFEncoder{}
}

// EncodeGIF implements GIFEncoder.
func (e *FrameGIFEncoder) EncodeGIF(ctx context.Context, video *Video) ([]byte, error) {
	if video == nil || len(video.Frames) == 0 {
		return nil, ErrNoFrames
	}

	fps := video.FPS
	if fps <= 0 {
		fps = 12
	}
	delay := max(1, 100/fps)

	anim := &gif.GIF{LoopCount: e.LoopCount}
	for i, frame := range video.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		bounds := img.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// LogicalUpscaler retags a clip with the target resolution without touching
// frame data. Used when no super-resolution runtime is attached.
type LogicalUpscaler struct{}

// Upscale implements SuperResolver.
func (LogicalUpscaler) Upscale(_ context.Context, video *Video, width, height int) (*Video, error) {
	out := *video
	out.Width = width
	out.Height = height
	return &out, nil
}

var (
	_ GIFEncoder    = (*FrameGIFEncoder)(nil)
	_ SuperResolver = LogicalUpscaler{}
)
