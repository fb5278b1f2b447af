package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFrame(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFrameGIFEncoder(t *testing.T) {
	t.Run("encodes looping gif", func(t *testing.T) {
		video := &Video{
			Frames: [][]byte{pngFrame(t, color.White), pngFrame(t, color.Black), pngFrame(t, color.White)},
			FPS:    10,
		}

		data, err := NewFrameGIFEncoder().EncodeGIF(context.Background(), video)
		require.NoError(t, err)

		decoded, err := gif.DecodeAll(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Len(t, decoded.Image, 3)
		assert.Equal(t, 0, decoded.LoopCount)
		assert.Equal(t, 10, decoded.Delay[0])
	})

	t.Run("rejects empty clip", func(t *testing.T) {
		_, err := NewFrameGIFEncoder().EncodeGIF(context.Background(), &Video{})
		assert.ErrorIs(t, err, ErrNoFrames)
	})

	t.Run("rejects undecodable frames", func(t *testing.T) {
		_, err := NewFrameGIFEncoder().EncodeGIF(context.Background(), &Video{Frames: [][]byte{[]byte("nope")}, FPS: 12})
		assert.Error(t, err)
	})
}

func TestAssembleScenes(t *testing.T) {
	a := &Video{Frames: [][]byte{{1}, {2}}, FPS: 8, Width: 64, Height: 32, Data: []byte("a")}
	b := &Video{Frames: [][]byte{{3}}, FPS: 8, Width: 64, Height: 32, Data: []byte("b")}

	t.Run("concatenates in order", func(t *testing.T) {
		v, err := AssembleScenes([]*Video{a, b}, 0)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{1}, {2}, {3}}, v.Frames)
		assert.Equal(t, 8, v.FPS)
		assert.Nil(t, v.Data)
		assert.InDelta(t, 0.375, v.DurationSec(), 1e-9)
	})

	t.Run("single scene keeps payload", func(t *testing.T) {
		v, err := AssembleScenes([]*Video{a}, 4)
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), v.Data)
		assert.Equal(t, 4, v.FPS)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := AssembleScenes(nil, 12)
		assert.ErrorIs(t, err, ErrNoOutput)

		_, err = AssembleScenes([]*Video{{FPS: 12}}, 12)
		assert.ErrorIs(t, err, ErrNoFrames)
	})
}

func TestPackage(t *testing.T) {
	outputs := []Output{{Raw: []byte("hi")}, {URL: "https://example.com/a.png"}}

	require.NoError(t, Package(ReturnBase64, outputs))
	assert.Equal(t, "aGk=", outputs[0].Data)
	assert.Nil(t, outputs[0].Raw)
	assert.Empty(t, outputs[1].Data)

	assert.NoError(t, Package(ReturnURL, outputs))
	assert.ErrorIs(t, Package("tar", outputs), ErrValidation)
}

func TestDefaultHooks(t *testing.T) {
	hooks := NewDefaultHooks(&HooksConfig{MaxOutputBytes: 10, StrictMaxVideoBytes: 4, WatermarkMode: "logical"})

	assert.ErrorIs(t, hooks.ValidateOutput("image", nil, nil, ""), ErrPolicy)
	assert.ErrorIs(t, hooks.ValidateOutput("image", make([]byte, 11), nil, ""), ErrPolicy)
	assert.ErrorIs(t, hooks.ValidateOutput("video", make([]byte, 5), nil, "strict"), ErrPolicy)
	assert.NoError(t, hooks.ValidateOutput("video", make([]byte, 5), nil, "default"))
	assert.NoError(t, hooks.ValidateOutput("image", make([]byte, 5), nil, "strict"))

	data, md, err := hooks.ApplyWatermark("image", []byte("x"), map[string]any{"width": 1}, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	assert.Equal(t, true, md["watermark_applied"])
	assert.Equal(t, "logical", md["watermark_mode"])
	assert.Equal(t, 1, md["width"])

	_, md, err = hooks.ApplyWatermark("video", []byte("x"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, false, md["watermark_applied"])
	assert.NotContains(t, md, "watermark_mode")
}
