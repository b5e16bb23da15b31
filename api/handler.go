package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v4"

	"github.com/bimaega15/translate-video/config"
	"github.com/bimaega15/translate-video/job"
	"github.com/bimaega15/translate-video/pipeline"
)

var errFileTooLarge = errors.New("uploaded file exceeds the size limit")

type Handler struct {
	manager *job.Manager
	cfg     *config.Config
}

func NewHandler(m *job.Manager, cfg *config.Config) *Handler {
	return &Handler{
		manager: m,
		cfg:     cfg,
	}
}

// handleCreateJob accepts a multipart video upload plus an optional
// source-language code and queues a translation job.
func (h *Handler) handleCreateJob(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}
	sourceLang := c.DefaultPostForm("source_language", "auto")

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !h.cfg.FormatAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file format. Please upload a video file.",
			"code":  string(pipeline.KindUnsupportedFormat),
		})
		return
	}

	if fileHeader.Size > h.cfg.MaxUploadSize {
		h.rejectTooLarge(c)
		return
	}

	id := shortuuid.New()
	dst := filepath.Join(h.cfg.UploadDir, id+ext)
	if err := h.saveUpload(fileHeader, dst); err != nil {
		if errors.Is(err, errFileTooLarge) {
			h.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload", "details": err.Error()})
		return
	}

	j, err := h.manager.Submit(job.SubmitRequest{
		ID:               id,
		OriginalFilename: filepath.Base(fileHeader.Filename),
		UploadPath:       dst,
		SourceLanguage:   sourceLang,
	})
	if err != nil {
		os.Remove(dst)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": j.ID})
}

func (h *Handler) rejectTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("File exceeds the %d byte limit", h.cfg.MaxUploadSize),
		"code":  string(pipeline.KindFileTooLarge),
	})
}

// saveUpload copies the multipart file to dst, enforcing the size ceiling
// while writing in case the reported header size lied.
func (h *Handler) saveUpload(fileHeader *multipart.FileHeader, dst string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	limited := &io.LimitedReader{R: src, N: h.cfg.MaxUploadSize + 1}
	written, err := io.Copy(out, limited)
	if err != nil {
		os.Remove(dst)
		return err
	}
	if written > h.cfg.MaxUploadSize {
		os.Remove(dst)
		return errFileTooLarge
	}
	return out.Close()
}

// handleListJobs lists all known jobs, oldest first.
func (h *Handler) handleListJobs(c *gin.Context) {
	jobs := h.manager.List()
	for _, j := range jobs {
		h.buildDownloadURL(c, j)
	}
	c.JSON(http.StatusOK, jobs)
}

// handleGetJobStatus retrieves the status/progress of a single job.
func (h *Handler) handleGetJobStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	j, found := h.manager.Get(jobID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	h.buildDownloadURL(c, j)
	c.JSON(http.StatusOK, j)
}

// handleCancelJob cancels a queued or running job.
func (h *Handler) handleCancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	if err := h.manager.Cancel(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job cancellation requested"})
}

// handleDownload serves the processed video of a completed job.
func (h *Handler) handleDownload(c *gin.Context) {
	j, ok := h.completedJob(c)
	if !ok {
		return
	}
	c.FileAttachment(j.OutputPath, downloadName(j.OriginalFilename, filepath.Ext(j.OutputPath)))
}

// handleDownloadSubtitle serves the generated SRT file of a completed job.
func (h *Handler) handleDownloadSubtitle(c *gin.Context) {
	j, ok := h.completedJob(c)
	if !ok {
		return
	}
	if j.SubtitlePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subtitle file for this job"})
		return
	}
	c.FileAttachment(j.SubtitlePath, downloadName(j.OriginalFilename, ".srt"))
}

// handleListLanguages returns the supported source languages.
func (h *Handler) handleListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, supportedLanguages)
}

func (h *Handler) completedJob(c *gin.Context) (*job.Job, bool) {
	jobID := c.Param("jobId")
	j, found := h.manager.Get(jobID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}
	if j.Status != job.StatusCompleted || j.OutputPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "File not ready for download"})
		return nil, false
	}
	return j, true
}

// buildDownloadURL constructs the full URL for a completed job's output file.
func (h *Handler) buildDownloadURL(c *gin.Context, j *job.Job) {
	if j.Status != job.StatusCompleted || j.OutputPath == "" {
		return
	}

	baseURL := h.cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	j.DownloadURL = fmt.Sprintf("%s/api/v1/jobs/%s/download", baseURL, j.ID)
}

// downloadName derives the attachment filename from the uploaded name, e.g.
// "holiday.mp4" becomes "holiday_translated.mp4".
func downloadName(originalFilename, ext string) string {
	stem := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	if stem == "" {
		stem = "video"
	}
	return stem + "_translated" + ext
}
