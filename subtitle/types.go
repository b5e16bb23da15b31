package subtitle

import "time"

// Segment is a time-bounded span of transcribed or translated text.
type Segment struct {
	Start        time.Duration `json:"start"`
	End          time.Duration `json:"end"`
	Text         string        `json:"text"`
	OriginalText string        `json:"originalText,omitempty"`
}

// Duration returns the on-screen time of the segment.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// FromSeconds converts a floating-point seconds value (as produced by speech
// recognition engines) to a Duration.
func FromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
