package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// ErrNoAudioTrack is returned when the uploaded container carries no audio
// stream to transcribe.
var ErrNoAudioTrack = errors.New("no audio track found in video")

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// FFmpeg wraps the ffmpeg and ffprobe binaries for audio extraction and
// subtitle muxing.
type FFmpeg struct {
	ffmpegBin  string
	ffprobeBin string
	muxArgs    []string
	runner     commandRunner
}

// New verifies both binaries are on PATH and parses the optional extra mux
// arguments (a shell-style string, e.g. subtitle codec overrides).
func New(ffmpegBin, ffprobeBin, extraMuxArgs string) (*FFmpeg, error) {
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found or not in PATH: %s: %w", ffmpegBin, err)
	}
	if _, err := exec.LookPath(ffprobeBin); err != nil {
		return nil, fmt.Errorf("ffprobe binary not found or not in PATH: %s: %w", ffprobeBin, err)
	}

	muxArgs, err := shlex.Split(extraMuxArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid extra mux arguments: %w", err)
	}

	return &FFmpeg{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		muxArgs:    muxArgs,
		runner:     execRunner{},
	}, nil
}

// HasAudioStream probes the container for at least one audio stream.
func (f *FFmpeg) HasAudioStream(ctx context.Context, videoPath string) (bool, error) {
	result, err := f.runner.Run(ctx, f.ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a",
		videoPath,
	)
	if err != nil {
		return false, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &probe); err != nil {
		return false, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return len(probe.Streams) > 0, nil
}

// Duration reads the container duration.
func (f *FFmpeg) Duration(ctx context.Context, videoPath string) (time.Duration, error) {
	result, err := f.runner.Run(ctx, f.ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		videoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ExtractAudio pulls the audio track into a 16 kHz mono PCM WAV file in
// workDir, the input format speech recognition engines expect.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, workDir string) (string, error) {
	hasAudio, err := f.HasAudioStream(ctx, videoPath)
	if err != nil {
		return "", err
	}
	if !hasAudio {
		return "", ErrNoAudioTrack
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(workDir, fmt.Sprintf("audio_%s.wav", base))

	result, err := f.runner.Run(ctx, f.ffmpegBin,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	)
	if err != nil {
		return "", fmt.Errorf("audio extraction failed: %w: %s", err, lastLine(result.Stderr))
	}
	return audioPath, nil
}

// AddSubtitles muxes the SRT file into a copy of the video as a soft subtitle
// track. MP4-family containers need mov_text; everything else takes srt as-is.
func (f *FFmpeg) AddSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", srtPath,
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", subtitleCodec(outputPath),
		"-metadata:s:s:0", "language=eng",
	}
	args = append(args, f.muxArgs...)
	args = append(args, outputPath)

	result, err := f.runner.Run(ctx, f.ffmpegBin, args...)
	if err != nil {
		return fmt.Errorf("subtitle mux failed: %w: %s", err, lastLine(result.Stderr))
	}
	return nil
}

func subtitleCodec(outputPath string) string {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".mp4", ".mov", ".m4v":
		return "mov_text"
	default:
		return "srt"
	}
}

// lastLine trims ffmpeg's stderr down to its final line, which carries the
// actual failure reason.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}
