package media

import "fmt"

// AssembleScenes concatenates scene clips in order. fps falls back to the
// first scene's rate, then 12. The encoded payload survives only for a
// single-scene clip since concatenated frames no longer match it.
func AssembleScenes(scenes []*Video, fps int) (*Video, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("assemble: %w", ErrNoOutput)
	}

	first := scenes[0]
	if fps <= 0 {
		fps = first.FPS
	}
	if fps <= 0 {
		fps = 12
	}

	total := 0
	for _, s := range scenes {
		total += len(s.Frames)
	}
	if total == 0 {
		return nil, fmt.Errorf("assemble: %w", ErrNoFrames)
	}

	out := &Video{
		Frames: make([][]byte, 0, total),
		FPS:    fps,
		Width:  first.Width,
		Height: first.Height,
		Format: first.Format,
	}
	for _, s := range scenes {
		out.Frames = append(out.Frames, s.Frames...)
	}

	if len(scenes) == 1 {
		out.Data = first.Data
		out.URL = first.URL
	}
	return out, nil
}
