package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimaega15/translate-video/config"
	"github.com/bimaega15/translate-video/job"
	"github.com/bimaega15/translate-video/subtitle"
)

// MediaProcessor handles the ffmpeg ends of the pipeline.
type MediaProcessor interface {
	ExtractAudio(ctx context.Context, videoPath, workDir string) (string, error)
	Duration(ctx context.Context, videoPath string) (time.Duration, error)
	AddSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error
}

// Transcriber turns an audio file into time-ordered transcript segments and
// reports the recognized language.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]subtitle.Segment, string, error)
}

// Translator converts transcript segments to English, timestamps unchanged.
type Translator interface {
	TranslateSegments(ctx context.Context, segments []subtitle.Segment, sourceLang string) ([]subtitle.Segment, error)
}

// Pipeline runs the processing stages for one job in order: extract audio,
// transcribe, translate, optimize timing, write subtitles, mux.
type Pipeline struct {
	cfg        *config.Config
	media      MediaProcessor
	stt        Transcriber
	translator Translator

	checkResources func() error
}

func New(cfg *config.Config, media MediaProcessor, stt Transcriber, translator Translator) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		media:      media,
		stt:        stt,
		translator: translator,
	}
	p.checkResources = p.systemResourcesOK
	return p
}

// Run implements job.Runner.
func (p *Pipeline) Run(ctx context.Context, j *job.Job, onProgress job.ProgressFunc) (job.Result, error) {
	if err := p.checkResources(); err != nil {
		return job.Result{}, stageErr(KindConfiguration, "resources", "insufficient system resources", err)
	}

	workDir, err := os.MkdirTemp("", "translate_video_")
	if err != nil {
		return job.Result{}, stageErr(KindConfiguration, "setup", "could not create work directory", err)
	}
	defer os.RemoveAll(workDir)

	onProgress(10, "Extracting audio...")
	audioPath, err := p.media.ExtractAudio(ctx, j.UploadPath, workDir)
	if err != nil {
		if ctx.Err() != nil {
			return job.Result{}, ctx.Err()
		}
		return job.Result{}, stageErr(KindExtraction, "extract", "failed to extract audio", err)
	}

	onProgress(30, "Transcribing speech...")
	segments, detectedLang, err := p.stt.Transcribe(ctx, audioPath, j.SourceLanguage)
	if err != nil {
		if ctx.Err() != nil {
			return job.Result{}, ctx.Err()
		}
		return job.Result{}, stageErr(KindTranscription, "transcribe", "failed to transcribe audio", err)
	}

	sourceLang := j.SourceLanguage
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = detectedLang
	}

	onProgress(60, "Translating to English...")
	translated, err := p.translator.TranslateSegments(ctx, segments, sourceLang)
	if err != nil {
		if ctx.Err() != nil {
			return job.Result{}, ctx.Err()
		}
		return job.Result{}, stageErr(KindTranslation, "translate", "failed to translate transcript", err)
	}

	onProgress(75, "Optimizing subtitle timing...")
	optimized := subtitle.SplitLongSegments(subtitle.MergeShortSegments(translated))
	if clipLen, err := p.media.Duration(ctx, j.UploadPath); err == nil {
		optimized = subtitle.ClampToClip(optimized, clipLen)
	} else if ctx.Err() != nil {
		return job.Result{}, ctx.Err()
	} else {
		log.Printf("Warning: could not probe clip duration for %s: %v", j.ID, err)
	}

	onProgress(80, "Generating subtitles...")
	srtPath := filepath.Join(p.cfg.ProcessedDir, fmt.Sprintf("translated_%s.srt", j.ID))
	if err := subtitle.WriteSRT(srtPath, optimized); err != nil {
		return job.Result{}, stageErr(KindMux, "subtitle", "failed to write subtitle file", err)
	}

	onProgress(90, "Adding subtitles to video...")
	ext := strings.ToLower(filepath.Ext(j.UploadPath))
	outputPath := filepath.Join(p.cfg.ProcessedDir, fmt.Sprintf("translated_%s%s", j.ID, ext))
	if err := p.media.AddSubtitles(ctx, j.UploadPath, srtPath, outputPath); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return job.Result{}, ctx.Err()
		}
		return job.Result{}, stageErr(KindMux, "mux", "failed to mux subtitles into video", err)
	}

	return job.Result{OutputPath: outputPath, SubtitlePath: srtPath}, nil
}
