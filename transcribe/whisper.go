package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bimaega15/translate-video/subtitle"
)

// ErrNoSpeech is returned when recognition finds nothing intelligible.
var ErrNoSpeech = errors.New("no speech recognized in audio")

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

// whisperResult mirrors the JSON the whisper CLI writes next to the audio.
type whisperResult struct {
	Task     string  `json:"task"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Text string `json:"text"`
}

// Whisper runs speech recognition through the whisper CLI.
type Whisper struct {
	bin      string
	model    string
	runner   commandRunner
	readFile func(name string) ([]byte, error)
}

// New verifies the whisper binary is on PATH.
func New(bin, model string) (*Whisper, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("whisper binary not found or not in PATH: %s: %w", bin, err)
	}
	return &Whisper{
		bin:      bin,
		model:    model,
		runner:   execRunner{},
		readFile: os.ReadFile,
	}, nil
}

// Transcribe runs recognition on audioPath and returns time-ordered segments
// plus the language whisper settled on. An "auto" or empty language hint lets
// whisper auto-detect.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, language string) ([]subtitle.Segment, string, error) {
	outputDir := filepath.Dir(audioPath)
	args := []string{
		audioPath,
		"--model", w.model,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if language != "" && language != "auto" {
		args = append(args, "--language", language)
	}

	result, err := w.runner.Run(ctx, w.bin, args...)
	if err != nil {
		return nil, "", fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(result.Stderr))
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, stem+".json")
	payload, err := w.readFile(jsonPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read whisper output %s: %w", jsonPath, err)
	}

	return parseResult(payload)
}

func parseResult(payload []byte) ([]subtitle.Segment, string, error) {
	var result whisperResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, "", fmt.Errorf("failed to parse whisper output: %w", err)
	}

	segments := make([]subtitle.Segment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			Start: subtitle.FromSeconds(seg.Start),
			End:   subtitle.FromSeconds(seg.End),
			Text:  text,
		})
	}
	if len(segments) == 0 {
		return nil, "", ErrNoSpeech
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments, result.Language, nil
}
