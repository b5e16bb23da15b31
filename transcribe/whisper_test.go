package transcribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
	"task": "transcribe",
	"language": "es",
	"duration": 10.0,
	"text": "Hola mundo. Esto es una prueba.",
	"segments": [
		{"id": 1, "start": 4.2, "end": 9.8, "text": " Esto es una prueba."},
		{"id": 0, "start": 0.0, "end": 4.0, "text": " Hola mundo."},
		{"id": 2, "start": 9.8, "end": 10.0, "text": "   "}
	]
}`

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return commandResult{}, f.err
}

func testWhisper(runner commandRunner, payload string) *Whisper {
	return &Whisper{
		bin:    "whisper",
		model:  "base",
		runner: runner,
		readFile: func(name string) ([]byte, error) {
			return []byte(payload), nil
		},
	}
}

func TestTranscribe(t *testing.T) {
	t.Run("returns time-ordered segments and detected language", func(t *testing.T) {
		runner := &fakeRunner{}
		w := testWhisper(runner, sampleResult)

		segments, lang, err := w.Transcribe(context.Background(), "/work/audio_abc.wav", "auto")
		require.NoError(t, err)
		assert.Equal(t, "es", lang)

		// Blank segment dropped, remainder sorted by start time.
		require.Len(t, segments, 2)
		assert.Equal(t, "Hola mundo.", segments[0].Text)
		assert.Equal(t, time.Duration(0), segments[0].Start)
		assert.Equal(t, "Esto es una prueba.", segments[1].Text)
		assert.Equal(t, 9800*time.Millisecond, segments[1].End)
	})

	t.Run("omits language flag when auto-detecting", func(t *testing.T) {
		runner := &fakeRunner{}
		w := testWhisper(runner, sampleResult)

		_, _, err := w.Transcribe(context.Background(), "/work/a.wav", "auto")
		require.NoError(t, err)
		require.Len(t, runner.calls, 1)
		assert.NotContains(t, runner.calls[0], "--language")
	})

	t.Run("passes through an explicit language hint", func(t *testing.T) {
		runner := &fakeRunner{}
		w := testWhisper(runner, sampleResult)

		_, _, err := w.Transcribe(context.Background(), "/work/a.wav", "es")
		require.NoError(t, err)
		assert.Contains(t, runner.calls[0], "--language")
		assert.Contains(t, runner.calls[0], "es")
	})

	t.Run("fails on empty transcription", func(t *testing.T) {
		w := testWhisper(&fakeRunner{}, `{"language":"en","segments":[]}`)

		_, _, err := w.Transcribe(context.Background(), "/work/a.wav", "auto")
		assert.ErrorIs(t, err, ErrNoSpeech)
	})
}
