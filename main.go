package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bimaega15/translate-video/api"
	"github.com/bimaega15/translate-video/config"
	"github.com/bimaega15/translate-video/job"
	"github.com/bimaega15/translate-video/media"
	"github.com/bimaega15/translate-video/pipeline"
	"github.com/bimaega15/translate-video/store"
	"github.com/bimaega15/translate-video/transcribe"
	"github.com/bimaega15/translate-video/translate"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	for _, dir := range []string{cfg.UploadDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// 2. Optional persistence layer
	var jobStore job.Store
	if cfg.DBPath != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open job store: %v", err)
		}
		defer sqliteStore.Close()
		jobStore = sqliteStore
	}

	// 3. Build the pipeline runner
	runner, err := buildRunner(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	// 4. Job manager
	manager := job.NewManager(cfg, runner, jobStore)

	// 5. Set up router and server
	router := api.SetupRouter(manager, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 6. Start background services and HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager.Start(ctx)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 7. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	// Restore default behavior on the interrupt signal and notify user of shutdown.
	stop()
	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

// buildRunner wires the real ffmpeg/whisper/MyMemory pipeline, or the canned
// demo runner when DEMO_MODE is set.
func buildRunner(cfg *config.Config) (job.Runner, error) {
	if cfg.DemoMode {
		log.Println("Demo mode enabled: jobs produce sample subtitles without ffmpeg or whisper")
		return pipeline.NewDemo(cfg.ProcessedDir), nil
	}

	mediaProc, err := media.New(cfg.FFmpegBin, cfg.FFprobeBin, cfg.SubtitleExtraArgs)
	if err != nil {
		return nil, configurationError("ffmpeg tools unavailable", err)
	}
	stt, err := transcribe.New(cfg.WhisperBin, cfg.WhisperModel)
	if err != nil {
		return nil, configurationError("whisper unavailable", err)
	}
	translator := translate.NewClient(cfg.TranslateAPIURL, cfg.TranslateTimeout)

	return pipeline.New(cfg, mediaProc, stt, translator), nil
}

// configurationError tags a missing external tool with the same failure kind
// the pipeline uses, so the taxonomy stays uniform.
func configurationError(message string, err error) error {
	return &pipeline.StageError{
		Kind:    pipeline.KindConfiguration,
		Stage:   "setup",
		Message: message,
		Err:     err,
	}
}
