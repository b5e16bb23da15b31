package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimaega15/translate-video/job"
	"github.com/bimaega15/translate-video/subtitle"
)

// Demo is a simulation-only runner: it walks the same stage progression as
// the real pipeline but produces fixed sample subtitles and copies the
// uploaded file through unchanged. Useful for trying the web flow without
// ffmpeg, whisper, or network access.
type Demo struct {
	processedDir string
	stepDelay    time.Duration
}

func NewDemo(processedDir string) *Demo {
	return &Demo{
		processedDir: processedDir,
		stepDelay:    2 * time.Second,
	}
}

var demoSegments = []subtitle.Segment{
	{Start: time.Second, End: 5 * time.Second, Text: "Welcome to the video translation demo"},
	{Start: 5 * time.Second, End: 10 * time.Second, Text: "This is a sample subtitle in English"},
	{Start: 10 * time.Second, End: 15 * time.Second, Text: "Your video processing is complete!"},
}

// Run implements job.Runner.
func (d *Demo) Run(ctx context.Context, j *job.Job, onProgress job.ProgressFunc) (job.Result, error) {
	steps := []struct {
		progress int
		message  string
	}{
		{10, "Extracting audio..."},
		{30, "Transcribing speech..."},
		{60, "Translating to English..."},
		{80, "Generating subtitles..."},
	}
	for _, step := range steps {
		onProgress(step.progress, step.message)
		if err := d.sleep(ctx); err != nil {
			return job.Result{}, err
		}
	}

	srtPath := filepath.Join(d.processedDir, fmt.Sprintf("translated_%s.srt", j.ID))
	if err := subtitle.WriteSRT(srtPath, demoSegments); err != nil {
		return job.Result{}, stageErr(KindMux, "subtitle", "failed to write subtitle file", err)
	}

	onProgress(90, "Adding subtitles to video...")
	if err := d.sleep(ctx); err != nil {
		return job.Result{}, err
	}

	ext := strings.ToLower(filepath.Ext(j.UploadPath))
	outputPath := filepath.Join(d.processedDir, fmt.Sprintf("translated_%s%s", j.ID, ext))
	if err := copyFile(j.UploadPath, outputPath); err != nil {
		return job.Result{}, stageErr(KindMux, "mux", "failed to copy video", err)
	}

	return job.Result{OutputPath: outputPath, SubtitlePath: srtPath}, nil
}

func (d *Demo) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.stepDelay):
		return nil
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
