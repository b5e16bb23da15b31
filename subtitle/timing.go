package subtitle

import (
	"strings"
	"time"
)

const (
	// Readability limits for a single subtitle entry.
	minSegmentDuration = time.Second
	maxSegmentDuration = 5 * time.Second
	maxSegmentChars    = 80
	maxMergeGap        = 2 * time.Second
)

// MergeShortSegments joins segments that flash by too quickly with their
// successors, as long as the combined text stays readable and the gap between
// them is small. Timestamps stay ordered and non-overlapping.
func MergeShortSegments(segments []Segment) []Segment {
	merged := make([]Segment, 0, len(segments))
	var current *Segment

	for _, seg := range segments {
		if current == nil {
			tmp := seg
			current = &tmp
			continue
		}

		combined := current.Text + " " + seg.Text
		if seg.Duration() < minSegmentDuration &&
			len(combined) <= maxSegmentChars &&
			seg.Start-current.End < maxMergeGap {
			current.Text = combined
			current.End = seg.End
			continue
		}

		merged = append(merged, *current)
		tmp := seg
		current = &tmp
	}

	if current != nil {
		merged = append(merged, *current)
	}
	return merged
}

// ClampToClip trims the segment list so no subtitle outlives the clip: entries
// starting past clipLen are dropped and the last entry's end is pulled in.
func ClampToClip(segments []Segment, clipLen time.Duration) []Segment {
	if clipLen <= 0 {
		return segments
	}
	ret := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start >= clipLen {
			break
		}
		if seg.End > clipLen {
			seg.End = clipLen
		}
		ret = append(ret, seg)
	}
	return ret
}

// SplitLongSegments breaks up segments that exceed the character or duration
// limits, distributing the time span proportionally across the words.
func SplitLongSegments(segments []Segment) []Segment {
	split := make([]Segment, 0, len(segments))

	for _, seg := range segments {
		if len(seg.Text) <= maxSegmentChars && seg.Duration() <= maxSegmentDuration {
			split = append(split, seg)
			continue
		}

		words := strings.Fields(seg.Text)
		if len(words) == 0 {
			split = append(split, seg)
			continue
		}
		wordDuration := seg.Duration() / time.Duration(len(words))

		var currentText string
		currentStart := seg.Start
		for _, word := range words {
			if currentText == "" {
				currentText = word
				continue
			}
			if len(currentText)+1+len(word) <= maxSegmentChars {
				currentText += " " + word
				continue
			}

			currentEnd := currentStart + time.Duration(len(strings.Fields(currentText)))*wordDuration
			split = append(split, Segment{
				Start:        currentStart,
				End:          currentEnd,
				Text:         currentText,
				OriginalText: seg.OriginalText,
			})
			currentStart = currentEnd
			currentText = word
		}

		if currentText != "" {
			split = append(split, Segment{
				Start:        currentStart,
				End:          seg.End,
				Text:         currentText,
				OriginalText: seg.OriginalText,
			})
		}
	}

	return split
}
