package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// WriteSRT writes segments to path in SubRip format, one numbered entry per
// segment.
func WriteSRT(path string, segments []Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to write")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	for i, seg := range segments {
		fmt.Fprintf(writer, "%d\n", i+1)
		fmt.Fprintf(writer, "%s --> %s\n", formatSRTTime(seg.Start), formatSRTTime(seg.End))
		fmt.Fprintf(writer, "%s\n\n", seg.Text)
	}

	return nil
}

// WriteVTT writes segments to path in WebVTT format.
func WriteVTT(path string, segments []Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to write")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	fmt.Fprint(writer, "WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(writer, "%s --> %s\n", formatVTTTime(seg.Start), formatVTTTime(seg.End))
		fmt.Fprintf(writer, "%s\n\n", seg.Text)
	}

	return nil
}

// formatSRTTime formats a duration as the SRT timestamp HH:MM:SS,mmm.
func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}

// formatVTTTime formats a duration as the WebVTT timestamp HH:MM:SS.mmm.
func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, milliseconds)
}
