package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bimaega15/translate-video/config"
	"github.com/lithammer/shortuuid/v4"
	"github.com/robfig/cron/v3"
)

// Manager is the process-wide job table plus the queue feeding the pipeline
// workers. All state behind one RWMutex; callers get snapshots.
type Manager struct {
	cfg    *config.Config
	runner Runner
	store  Store

	mu      sync.RWMutex
	jobs    map[string]*Job
	queue   chan string
	sem     chan struct{}
	cron    *cron.Cron
	started bool
}

func NewManager(cfg *config.Config, runner Runner, store Store) *Manager {
	concurrency := cfg.MaxConcurrency
	if concurrency < 0 {
		concurrency = 0
	}
	m := &Manager{
		cfg:    cfg,
		runner: runner,
		store:  store,
		jobs:   make(map[string]*Job),
		queue:  make(chan string, 100),
		sem:    make(chan struct{}, concurrency),
		cron:   cron.New(),
	}
	m.hydrateFromStore(context.Background())
	return m
}

// Start launches the worker loop and the retention sweep. Jobs left queued by
// a previous process are re-enqueued.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	pending := make([]string, 0)
	for id, j := range m.jobs {
		if j.Status == StatusUploaded {
			pending = append(pending, id)
		}
	}
	m.mu.Unlock()

	for _, id := range pending {
		m.enqueue(id)
	}

	log.Println("Job manager started. Concurrency limit:", cap(m.sem))
	go m.workerLoop(ctx)

	if _, err := m.cron.AddFunc(m.cfg.CleanupSchedule, m.cleanupOnce); err != nil {
		log.Printf("Invalid cleanup schedule %q: %v", m.cfg.CleanupSchedule, err)
	} else {
		m.cron.Start()
		go func() {
			<-ctx.Done()
			m.cron.Stop()
		}()
	}
}

// Submit records an uploaded video and queues it for processing.
func (m *Manager) Submit(req SubmitRequest) (*Job, error) {
	id := req.ID
	if id == "" {
		id = shortuuid.New()
	}
	now := time.Now()
	j := &Job{
		ID:               id,
		OriginalFilename: req.OriginalFilename,
		SourceLanguage:   req.SourceLanguage,
		UploadPath:       req.UploadPath,
		Status:           StatusUploaded,
		Progress:         0,
		Message:          "File uploaded successfully",
		CreatedAt:        now,
	}

	m.mu.Lock()
	if _, exists := m.jobs[id]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("job %s already exists", id)
	}
	m.jobs[id] = j
	started := m.started
	snapshot := cloneJob(j)
	m.mu.Unlock()

	m.persist(snapshot)
	if started {
		m.enqueue(id)
	}
	log.Printf("Job %s submitted to queue.", id)
	return snapshot, nil
}

func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(j), true
}

func (m *Manager) List() []*Job {
	m.mu.RLock()
	ret := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		ret = append(ret, cloneJob(j))
	}
	m.mu.RUnlock()

	sort.Slice(ret, func(i, k int) bool {
		return ret[i].CreatedAt.Before(ret[k].CreatedAt)
	})
	return ret
}

// Cancel stops a queued or running job.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job %s not found", id)
	}

	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCanceled:
		status := j.Status
		m.mu.Unlock()
		return fmt.Errorf("cannot cancel job in state: %s", status)
	case StatusUploaded:
		j.Status = StatusCanceled
		j.Message = "Canceled by user while in queue"
		// Stamp completion so the retention sweep can age this job out.
		j.CompletedAt = time.Now()
		snapshot := cloneJob(j)
		m.mu.Unlock()
		m.persist(snapshot)
		log.Printf("Job %s marked as canceled in queue.", id)
		return nil
	default: // StatusProcessing
		cancel := j.cancelFunc
		m.mu.Unlock()
		if cancel == nil {
			return fmt.Errorf("job %s is processing but has no cancellation handle", id)
		}
		cancel()
		log.Printf("Cancellation signal sent to running job %s.", id)
		return nil
	}
}

// workerLoop pulls jobs from the queue and processes them.
func (m *Manager) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("Worker loop shutting down.")
			return
		case id := <-m.queue:
			// Wait for a free processing slot
			m.sem <- struct{}{}
			go func(jobID string) {
				defer func() { <-m.sem }()
				m.processJob(ctx, jobID)
			}(id)
		}
	}
}

// processJob runs the pipeline for a single job and records the outcome.
func (m *Manager) processJob(parentCtx context.Context, id string) {
	jobCtx, cancel := context.WithTimeout(parentCtx, m.cfg.JobTimeout)
	defer cancel()

	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok || j.Status != StatusUploaded {
		// Canceled or evicted while in queue.
		m.mu.Unlock()
		return
	}
	j.Status = StatusProcessing
	j.StartedAt = time.Now()
	j.cancelFunc = cancel
	snapshot := cloneJob(j)
	m.mu.Unlock()

	log.Printf("Processing job %s (%s)", id, snapshot.OriginalFilename)
	m.persist(snapshot)

	result, err := m.runner.Run(jobCtx, snapshot, func(progress int, message string) {
		m.setProgress(id, progress, message)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Job %s canceled or timed out.", id)
			m.finish(id, StatusCanceled, "Processing was canceled or timed out", err)
		} else {
			log.Printf("Job %s failed: %v", id, err)
			m.finish(id, StatusFailed, fmt.Sprintf("Error: %v", err), err)
		}
		m.removeUpload(snapshot.UploadPath)
		return
	}

	m.mu.Lock()
	if j, ok := m.jobs[id]; ok {
		j.Status = StatusCompleted
		j.Progress = 100
		j.Message = "Video processing completed! Download includes video + SRT subtitle file."
		j.OutputPath = result.OutputPath
		j.SubtitlePath = result.SubtitlePath
		j.CompletedAt = time.Now()
		snapshot = cloneJob(j)
	}
	m.mu.Unlock()

	m.persist(snapshot)
	m.removeUpload(snapshot.UploadPath)
	log.Printf("Job %s completed successfully.", id)
}

// setProgress raises the job's progress. Values never go backwards, so polling
// clients observe a non-decreasing sequence.
func (m *Manager) setProgress(id string, progress int, message string) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok || j.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	if message != "" {
		j.Message = message
	}
	snapshot := cloneJob(j)
	m.mu.Unlock()

	m.persist(snapshot)
}

func (m *Manager) finish(id string, status Status, message string, err error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	j.Status = status
	j.Message = message
	if err != nil {
		j.Error = err.Error()
	}
	j.CompletedAt = time.Now()
	snapshot := cloneJob(j)
	m.mu.Unlock()

	m.persist(snapshot)
}

// cleanupOnce evicts terminal jobs older than the retention window and removes
// their files.
func (m *Manager) cleanupOnce() {
	cutoff := time.Now().Add(-m.cfg.RetentionWindow)

	m.mu.Lock()
	expired := make([]*Job, 0)
	for id, j := range m.jobs {
		if !j.Status.Terminal() {
			continue
		}
		// Older records may predate the completion stamp; age those by
		// creation time instead.
		age := j.CompletedAt
		if age.IsZero() {
			age = j.CreatedAt
		}
		if age.Before(cutoff) {
			expired = append(expired, cloneJob(j))
			delete(m.jobs, id)
		}
	}
	m.mu.Unlock()

	for _, j := range expired {
		log.Printf("Evicting expired job %s", j.ID)
		for _, path := range []string{j.OutputPath, j.SubtitlePath, j.UploadPath} {
			if path != "" {
				os.Remove(path)
			}
		}
		if m.store != nil {
			if err := m.store.DeleteJob(context.Background(), j.ID); err != nil {
				log.Printf("Failed to delete expired job %s from store: %v", j.ID, err)
			}
		}
	}
}

// hydrateFromStore reloads persisted jobs. Work in flight when the previous
// process died cannot be resumed, so processing jobs come back failed;
// uploaded ones re-enter the queue when Start runs.
func (m *Manager) hydrateFromStore(ctx context.Context) {
	if m.store == nil {
		return
	}
	loaded, err := m.store.LoadJobs(ctx)
	if err != nil {
		log.Printf("Failed to load jobs from store: %v", err)
		return
	}

	toPersist := make([]*Job, 0)
	m.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		j := cloneJob(raw)
		if j.Status == StatusProcessing {
			j.Status = StatusFailed
			j.Message = "Processing was interrupted by a restart"
			j.Error = "interrupted by restart"
			j.CompletedAt = time.Now()
			toPersist = append(toPersist, cloneJob(j))
		}
		m.jobs[j.ID] = j
	}
	m.mu.Unlock()

	for _, j := range toPersist {
		m.persist(j)
	}
}

func (m *Manager) enqueue(id string) {
	select {
	case m.queue <- id:
	default:
		go func() { m.queue <- id }()
	}
}

func (m *Manager) persist(j *Job) {
	if m.store == nil || j == nil {
		return
	}
	if err := m.store.UpsertJob(context.Background(), j); err != nil {
		log.Printf("Failed to persist job %s: %v", j.ID, err)
	}
}

func (m *Manager) removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove upload %s: %v", path, err)
	}
}
