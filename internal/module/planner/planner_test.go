package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPartition(t *testing.T, plan *Plan) {
	t.Helper()
	require.NotEmpty(t, plan.Scenes)

	next := 0
	sum := 0
	for i, s := range plan.Scenes {
		assert.Equal(t, i+1, s.Index)
		assert.Equal(t, next, s.StartFrame, "scene %d start", s.Index)
		assert.GreaterOrEqual(t, s.EndFrame, s.StartFrame)
		assert.Equal(t, s.EndFrame-s.StartFrame+1, s.FrameCount)
		assert.Greater(t, s.DurationSec, 0.0)
		next = s.EndFrame + 1
		sum += s.FrameCount
	}
	assert.Equal(t, plan.TotalFrames, sum)
	assert.Equal(t, plan.TotalFrames, next)
}

func TestPlanner_Plan(t *testing.T) {
	p := New(nil)

	t.Run("single short prompt", func(t *testing.T) {
		plan, err := p.Plan("A red fox runs through a snowy forest")
		require.NoError(t, err)

		assert.Len(t, plan.Scenes, 1)
		assert.Equal(t, 5.0, plan.TotalDurationSec)
		assert.Equal(t, 12, plan.FPS)
		assert.Equal(t, 60, plan.TotalFrames)
		assert.Equal(t, StyleNatural, plan.Style)
		assert.Equal(t, MotionNormal, plan.Motion)
		assert.Equal(t, CameraStandard, plan.Camera)
		assert.Equal(t, 1.0, plan.GroundingScore)
		assert.Equal(t, 0.0, plan.Scenes[0].StartSec)
		assert.Equal(t, 5.0, plan.Scenes[0].EndSec)
		assertPartition(t, plan)
	})

	t.Run("connectives split scenes with emphasis on first and last", func(t *testing.T) {
		plan, err := p.Plan("A knight rides across the valley then a dragon attacks the castle walls then the village celebrates at dawn")
		require.NoError(t, err)

		require.Len(t, plan.Scenes, 3)
		assert.Equal(t, "A knight rides across the valley", plan.Scenes[0].Text)
		assert.Equal(t, "a dragon attacks the castle walls", plan.Scenes[1].Text)
		assert.Equal(t, "the village celebrates at dawn", plan.Scenes[2].Text)

		assert.Equal(t, 15.0, plan.TotalDurationSec)
		assert.Equal(t, 180, plan.TotalFrames)
		assert.InDelta(t, 6.5, plan.Scenes[0].DurationSec, 1e-9)
		assert.InDelta(t, 2.0, plan.Scenes[1].DurationSec, 1e-9)
		assert.InDelta(t, 6.5, plan.Scenes[2].DurationSec, 1e-9)

		assert.Equal(t, []int{78, 24, 78}, []int{
			plan.Scenes[0].FrameCount, plan.Scenes[1].FrameCount, plan.Scenes[2].FrameCount,
		})
		assert.Equal(t, 102, plan.Scenes[2].StartFrame)
		assert.Equal(t, 179, plan.Scenes[2].EndFrame)
		assertPartition(t, plan)
	})

	t.Run("short fragments merge into previous scene", func(t *testing.T) {
		plan, err := p.Plan("A cat sleeps on the sofa then wakes")
		require.NoError(t, err)

		require.Len(t, plan.Scenes, 1)
		assert.Equal(t, "A cat sleeps on the sofa, wakes", plan.Scenes[0].Text)
	})

	t.Run("explicit scene markers", func(t *testing.T) {
		plan, err := p.Plan("Scene 1: a lone astronaut walks on mars. Scene 2: a rover drives past red dunes")
		require.NoError(t, err)

		require.Len(t, plan.Scenes, 2)
		assert.Equal(t, "a lone astronaut walks on mars", plan.Scenes[0].Text)
		assert.Equal(t, "a rover drives past red dunes", plan.Scenes[1].Text)
		assertPartition(t, plan)
	})

	t.Run("three numbered scenes", func(t *testing.T) {
		plan, err := p.Plan("Scene 1: forest in rain. Scene 2: close-up of wet leaves. Scene 3: fog moving through pines.")
		require.NoError(t, err)

		require.Len(t, plan.Scenes, 3)
		assert.Equal(t, 3, plan.SceneCount())
		assert.Equal(t, "forest in rain", plan.Scenes[0].Text)
		assert.Equal(t, "close-up of wet leaves", plan.Scenes[1].Text)
		assert.Equal(t, "fog moving through pines", plan.Scenes[2].Text)

		assert.Equal(t, 12, plan.FPS)
		assert.Equal(t, 15.0, plan.TotalDurationSec)
		assert.Equal(t, 180, plan.TotalFrames)
		assert.Equal(t, [][2]int{{0, 77}, {78, 101}, {102, 179}}, [][2]int{
			{plan.Scenes[0].StartFrame, plan.Scenes[0].EndFrame},
			{plan.Scenes[1].StartFrame, plan.Scenes[1].EndFrame},
			{plan.Scenes[2].StartFrame, plan.Scenes[2].EndFrame},
		})
		assert.Equal(t, 1.0, plan.GroundingScore)
		assertPartition(t, plan)

		md := plan.Metadata()
		assert.Equal(t, 3, md["scene_count"])
		assert.Equal(t, 12, md["fps"])
		assert.Len(t, md["scene_plan"], 3)
	})

	t.Run("line items become scenes", func(t *testing.T) {
		plan, err := p.Plan("1. a lighthouse stands on the cliff\n2. waves crash against the rocks below\n- gulls circle above the stormy sea")
		require.NoError(t, err)

		require.Len(t, plan.Scenes, 3)
		assert.Equal(t, "waves crash against the rocks below", plan.Scenes[1].Text)
		assertPartition(t, plan)
	})

	t.Run("scene count is capped", func(t *testing.T) {
		parts := make([]string, 10)
		for i := range parts {
			parts[i] = "a bird flies over the hills"
		}
		plan, err := p.Plan(strings.Join(parts, " then "))
		require.NoError(t, err)

		assert.Len(t, plan.Scenes, MaxScenes)
		assertPartition(t, plan)
	})

	t.Run("labels and fps follow vocabulary", func(t *testing.T) {
		plan, err := p.Plan("cinematic drone shot of a neon city in slow motion")
		require.NoError(t, err)

		assert.Equal(t, StyleCinematic, plan.Style)
		assert.Equal(t, MotionSlow, plan.Motion)
		assert.Equal(t, CameraAerial, plan.Camera)
		assert.Equal(t, 10, plan.FPS)
		assert.Contains(t, plan.Scenes[0].ShotPrompt, "Style: cinematic. Motion: slow. Camera: aerial.")
	})

	t.Run("fast motion uses 16 fps", func(t *testing.T) {
		plan, err := p.Plan("a high energy car chase through the desert")
		require.NoError(t, err)

		assert.Equal(t, MotionFast, plan.Motion)
		assert.Equal(t, 16, plan.FPS)
		assert.Equal(t, 80, plan.TotalFrames)
	})

	t.Run("text outside scene markers lowers grounding", func(t *testing.T) {
		plan, err := p.Plan("Intro words elephant giraffe. Scene 1: a cat")
		require.NoError(t, err)

		assert.Equal(t, []string{"intro", "words", "elephant", "giraffe", "cat"}, plan.GroundingTokens)
		assert.Equal(t, 0.2, plan.GroundingScore)
	})

	t.Run("blank prompt is rejected", func(t *testing.T) {
		_, err := p.Plan("   \n\t ")
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})

	t.Run("partition holds across prompt shapes", func(t *testing.T) {
		prompts := []string{
			"sunrise",
			"a slow motion waterfall then a macro shot of a dew drop next a wide landscape of the valley",
			strings.Repeat("the quick brown fox jumps over the lazy dog ", 20),
			"Scene 1: dawn. Scene 2: noon over the market square. Scene 3: dusk. Scene 4: a night sky full of stars",
		}
		for _, prompt := range prompts {
			plan, err := p.Plan(prompt)
			require.NoError(t, err)
			assertPartition(t, plan)
			assert.GreaterOrEqual(t, plan.TotalDurationSec, 4.0)
			assert.LessOrEqual(t, plan.TotalDurationSec, 60.0)
			assert.GreaterOrEqual(t, plan.TotalFrames, 16)
		}
	})
}

func TestPlanner_CompileSpec(t *testing.T) {
	p := New(nil)

	spec, err := p.CompileSpec("A knight rides across the valley then a dragon attacks the castle walls then the village celebrates at dawn")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(spec.Prompt, "Create a video storyboard with 3 scenes. Total duration target: 15.0 seconds.\nScene 1: A knight rides across the valley."))
	assert.Contains(t, spec.Prompt, "\nScene 3: the village celebrates at dawn.")
	assert.Equal(t, 12, spec.FPS)
	assert.Equal(t, 180, spec.NumFrames)
	assert.Equal(t, true, spec.Metadata["prompt_aware"])
	assert.Equal(t, 3, spec.Metadata["scene_count"])
	assert.NotEmpty(t, spec.Metadata["compiled_prompt_preview"])

	_, err = p.CompileSpec("")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestAllocateFrames(t *testing.T) {
	t.Run("adds missing frames cyclically", func(t *testing.T) {
		frames := allocateFrames([]float64{1, 1, 1}, 10, 33)
		assert.Equal(t, []int{11, 11, 11}, frames)
	})

	t.Run("removes surplus frames without going below one", func(t *testing.T) {
		frames := allocateFrames([]float64{0.01, 3, 3}, 10, 50)
		assert.Equal(t, 50, frames[0]+frames[1]+frames[2])
		for _, f := range frames {
			assert.GreaterOrEqual(t, f, 1)
		}
	})
}

type stubClassifier struct{}

func (stubClassifier) Segment(string) []string { return []string{"first part", "second part"} }
func (stubClassifier) Style(string) string      { return StyleNoir }
func (stubClassifier) Motion(string) string     { return MotionFast }
func (stubClassifier) Camera(string) string     { return CameraWide }

func TestPlanner_CustomClassifier(t *testing.T) {
	plan, err := New(stubClassifier{}).Plan("anything goes here")
	require.NoError(t, err)

	require.Len(t, plan.Scenes, 2)
	assert.Equal(t, StyleNoir, plan.Style)
	assert.Equal(t, 16, plan.FPS)
	assertPartition(t, plan)
}
