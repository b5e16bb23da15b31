package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeShortSegments(t *testing.T) {
	t.Run("merges a quick segment into its predecessor", func(t *testing.T) {
		segments := []Segment{
			{Start: 0, End: 2 * time.Second, Text: "So"},
			{Start: 2 * time.Second, End: 2*time.Second + 400*time.Millisecond, Text: "anyway"},
		}

		merged := MergeShortSegments(segments)
		require.Len(t, merged, 1)
		assert.Equal(t, "So anyway", merged[0].Text)
		assert.Equal(t, time.Duration(0), merged[0].Start)
		assert.Equal(t, 2*time.Second+400*time.Millisecond, merged[0].End)
	})

	t.Run("does not merge across a long silence", func(t *testing.T) {
		segments := []Segment{
			{Start: 0, End: 2 * time.Second, Text: "Before the pause"},
			{Start: 10 * time.Second, End: 10*time.Second + 500*time.Millisecond, Text: "after"},
		}

		merged := MergeShortSegments(segments)
		assert.Len(t, merged, 2)
	})

	t.Run("keeps well-sized segments untouched", func(t *testing.T) {
		segments := []Segment{
			{Start: 0, End: 3 * time.Second, Text: "First line"},
			{Start: 3 * time.Second, End: 6 * time.Second, Text: "Second line"},
		}

		assert.Equal(t, segments, MergeShortSegments(segments))
	})
}

func TestClampToClip(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 4 * time.Second, Text: "Inside the clip"},
		{Start: 4 * time.Second, End: 10 * time.Second, Text: "Runs past the end"},
		{Start: 10 * time.Second, End: 12 * time.Second, Text: "Entirely past the end"},
	}

	clamped := ClampToClip(segments, 8*time.Second)
	require.Len(t, clamped, 2)
	assert.Equal(t, 4*time.Second, clamped[0].End)
	assert.Equal(t, 8*time.Second, clamped[1].End)

	t.Run("unknown clip length leaves segments alone", func(t *testing.T) {
		assert.Equal(t, segments, ClampToClip(segments, 0))
	})
}

func TestSplitLongSegments(t *testing.T) {
	t.Run("splits overly long text", func(t *testing.T) {
		long := "this sentence keeps going and going with far too many words to fit comfortably on a single subtitle line for any viewer"
		segments := []Segment{{Start: 0, End: 10 * time.Second, Text: long}}

		split := SplitLongSegments(segments)
		require.Greater(t, len(split), 1)

		for _, seg := range split {
			assert.LessOrEqual(t, len(seg.Text), maxSegmentChars)
		}
		// The split pieces must stay ordered and cover the original span.
		assert.Equal(t, time.Duration(0), split[0].Start)
		assert.Equal(t, 10*time.Second, split[len(split)-1].End)
		for i := 1; i < len(split); i++ {
			assert.Equal(t, split[i-1].End, split[i].Start)
		}
	})

	t.Run("keeps short segments untouched", func(t *testing.T) {
		segments := []Segment{{Start: 0, End: 2 * time.Second, Text: "short and sweet"}}
		assert.Equal(t, segments, SplitLongSegments(segments))
	})
}
