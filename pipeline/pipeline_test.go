package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimaega15/translate-video/config"
	"github.com/bimaega15/translate-video/job"
	"github.com/bimaega15/translate-video/media"
	"github.com/bimaega15/translate-video/subtitle"
)

type fakeMedia struct {
	extractErr   error
	muxErr       error
	clipLen      time.Duration
	extractCalls int
	muxCalls     int
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, videoPath, workDir string) (string, error) {
	f.extractCalls++
	if f.extractErr != nil {
		return "", f.extractErr
	}
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := os.WriteFile(audioPath, []byte("wav"), 0o644); err != nil {
		return "", err
	}
	return audioPath, nil
}

func (f *fakeMedia) Duration(ctx context.Context, videoPath string) (time.Duration, error) {
	return f.clipLen, nil
}

func (f *fakeMedia) AddSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error {
	f.muxCalls++
	if f.muxErr != nil {
		return f.muxErr
	}
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

type fakeTranscriber struct {
	segments []subtitle.Segment
	language string
	err      error
	calls    int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]subtitle.Segment, string, error) {
	f.calls++
	return f.segments, f.language, f.err
}

type fakeTranslator struct {
	err      error
	gotLang  string
	fakeText string
}

func (f *fakeTranslator) TranslateSegments(ctx context.Context, segments []subtitle.Segment, sourceLang string) ([]subtitle.Segment, error) {
	f.gotLang = sourceLang
	if f.err != nil {
		return nil, f.err
	}
	out := make([]subtitle.Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		out[i].OriginalText = seg.Text
		out[i].Text = f.fakeText
	}
	return out, nil
}

func spanishTranscript() []subtitle.Segment {
	return []subtitle.Segment{
		{Start: 0, End: 4 * time.Second, Text: "Hola a todos los espectadores."},
		{Start: 4 * time.Second, End: 10 * time.Second, Text: "Gracias por ver este video."},
	}
}

func testPipeline(t *testing.T, m *fakeMedia, stt *fakeTranscriber, tr *fakeTranslator) (*Pipeline, *job.Job) {
	t.Helper()
	processedDir := t.TempDir()
	uploadDir := t.TempDir()

	uploadPath := filepath.Join(uploadDir, "jid.mp4")
	require.NoError(t, os.WriteFile(uploadPath, []byte("fake video"), 0o644))

	cfg := &config.Config{ProcessedDir: processedDir}
	p := New(cfg, m, stt, tr)
	p.checkResources = func() error { return nil }

	j := &job.Job{ID: "jid", UploadPath: uploadPath, SourceLanguage: "es"}
	return p, j
}

func TestPipelineRun(t *testing.T) {
	t.Run("runs all stages in order and produces artifacts", func(t *testing.T) {
		m := &fakeMedia{}
		stt := &fakeTranscriber{segments: spanishTranscript(), language: "es"}
		tr := &fakeTranslator{fakeText: "Hello everyone."}
		p, j := testPipeline(t, m, stt, tr)

		var progress []int
		result, err := p.Run(context.Background(), j, func(pct int, msg string) {
			progress = append(progress, pct)
		})
		require.NoError(t, err)

		assert.Equal(t, []int{10, 30, 60, 75, 80, 90}, progress)
		assert.FileExists(t, result.OutputPath)
		assert.FileExists(t, result.SubtitlePath)
		assert.Equal(t, ".mp4", filepath.Ext(result.OutputPath))

		content, err := os.ReadFile(result.SubtitlePath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Hello everyone.")
	})

	t.Run("silent video fails extraction and never reaches the transcriber", func(t *testing.T) {
		m := &fakeMedia{extractErr: media.ErrNoAudioTrack}
		stt := &fakeTranscriber{}
		p, j := testPipeline(t, m, stt, &fakeTranslator{})

		_, err := p.Run(context.Background(), j, func(int, string) {})
		require.Error(t, err)
		assert.Equal(t, KindExtraction, KindOf(err))
		assert.ErrorIs(t, err, media.ErrNoAudioTrack)
		assert.Zero(t, stt.calls)
	})

	t.Run("maps transcription failure", func(t *testing.T) {
		stt := &fakeTranscriber{err: errors.New("unintelligible audio")}
		p, j := testPipeline(t, &fakeMedia{}, stt, &fakeTranslator{})

		_, err := p.Run(context.Background(), j, func(int, string) {})
		assert.Equal(t, KindTranscription, KindOf(err))
	})

	t.Run("maps translation failure", func(t *testing.T) {
		stt := &fakeTranscriber{segments: spanishTranscript(), language: "es"}
		tr := &fakeTranslator{err: errors.New("service unavailable")}
		p, j := testPipeline(t, &fakeMedia{}, stt, tr)

		_, err := p.Run(context.Background(), j, func(int, string) {})
		assert.Equal(t, KindTranslation, KindOf(err))
	})

	t.Run("maps mux failure", func(t *testing.T) {
		m := &fakeMedia{muxErr: errors.New("codec incompatibility")}
		stt := &fakeTranscriber{segments: spanishTranscript(), language: "es"}
		p, j := testPipeline(t, m, stt, &fakeTranslator{fakeText: "x"})

		_, err := p.Run(context.Background(), j, func(int, string) {})
		assert.Equal(t, KindMux, KindOf(err))
	})

	t.Run("clamps subtitles to the clip duration", func(t *testing.T) {
		m := &fakeMedia{clipLen: 8 * time.Second}
		stt := &fakeTranscriber{segments: spanishTranscript(), language: "es"}
		p, j := testPipeline(t, m, stt, &fakeTranslator{fakeText: "Thanks for watching."})

		result, err := p.Run(context.Background(), j, func(int, string) {})
		require.NoError(t, err)

		// The transcript runs to 10s but the probed clip is only 8s long.
		content, err := os.ReadFile(result.SubtitlePath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "00:00:08,000")
		assert.NotContains(t, string(content), "00:00:10,000")
	})

	t.Run("falls back to the recognized language when hint is auto", func(t *testing.T) {
		stt := &fakeTranscriber{segments: spanishTranscript(), language: "es"}
		tr := &fakeTranslator{fakeText: "x"}
		p, j := testPipeline(t, &fakeMedia{}, stt, tr)
		j.SourceLanguage = "auto"

		_, err := p.Run(context.Background(), j, func(int, string) {})
		require.NoError(t, err)
		assert.Equal(t, "es", tr.gotLang)
	})

	t.Run("fails when resources are exhausted before any stage", func(t *testing.T) {
		m := &fakeMedia{}
		p, j := testPipeline(t, m, &fakeTranscriber{}, &fakeTranslator{})
		p.checkResources = func() error { return errors.New("not enough free memory") }

		_, err := p.Run(context.Background(), j, func(int, string) {})
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
		assert.Zero(t, m.extractCalls)
	})
}

func TestDemoRun(t *testing.T) {
	processedDir := t.TempDir()
	uploadPath := filepath.Join(t.TempDir(), "demo.mp4")
	require.NoError(t, os.WriteFile(uploadPath, []byte("demo video"), 0o644))

	d := NewDemo(processedDir)
	d.stepDelay = time.Millisecond

	j := &job.Job{ID: "demo", UploadPath: uploadPath}
	var progress []int
	result, err := d.Run(context.Background(), j, func(pct int, msg string) {
		progress = append(progress, pct)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 30, 60, 80, 90}, progress)
	assert.FileExists(t, result.OutputPath)

	content, err := os.ReadFile(result.SubtitlePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Welcome to the video translation demo")

	copied, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "demo video", string(copied))
}
