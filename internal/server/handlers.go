package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/helpers"
	"go-stream-download/internal/models"
)

type createDownloadRequest struct {
	URL          string `json:"url" form:"url"`
	DownloadType string `json:"download_type" form:"download_type"`
	AudioFormat  string `json:"audio_format" form:"audio_format"`
}

// handleCreateDownload validates the request, registers a job and hands it to
// the pool. The response returns immediately with the job id; progress is
// polled via the status endpoint.
func (s *Server) handleCreateDownload(c *gin.Context) {
	var req createDownloadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request body"})
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	kind := models.DownloadType(req.DownloadType)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "download_type must be video or audio"})
		return
	}

	format := models.AudioFormat(req.AudioFormat)
	if req.AudioFormat == "" {
		format = models.AudioFormatMP3
	}
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_format must be mp3 or original"})
		return
	}

	id := s.registry.Create(kind, format, req.URL)
	s.pool.Submit(func() {
		s.runner.Run(context.Background(), id)
	})

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": id,
		"status": models.JobStatusQueued,
	})
}

// handleJobStatus returns the current snapshot of a job.
func (s *Server) handleJobStatus(c *gin.Context) {
	j, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}

	resp := gin.H{
		"id":            j.ID,
		"status":        j.Status,
		"download_type": j.DownloadType,
		"audio_format":  j.AudioFormat,
		"url":           j.URL,
		"created_at":    j.CreatedAt,
	}
	if j.Filename != "" {
		resp["filename"] = j.Filename
	}
	if j.Checksum != "" {
		resp["checksum"] = j.Checksum
	}
	if j.Error != "" {
		resp["error"] = j.Error
	}
	if !j.FinishedAt.IsZero() {
		resp["finished_at"] = j.FinishedAt
	}
	c.JSON(http.StatusOK, resp)
}

// handlePreview resolves metadata for a URL without starting a download.
// Lookup failures are reported in-band with ok=false so the client can show
// the reason next to the input field.
func (s *Server) handlePreview(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	p, err := s.previews.GetOrFetch(c.Request.Context(), url)
	if err != nil {
		log.WithError(err).Warnf("Preview failed for %s", url)
		c.JSON(http.StatusOK, gin.H{
			"ok":    false,
			"url":   url,
			"error": err.Error(),
		})
		return
	}

	resp := gin.H{
		"ok":    true,
		"url":   p.URL,
		"title": p.Title,
	}
	if p.Uploader != "" {
		resp["uploader"] = p.Uploader
	}
	if p.Description != "" {
		resp["description"] = p.Description
	}
	if p.Thumbnail != "" {
		resp["thumbnail"] = p.Thumbnail
	}
	if p.WebpageURL != "" {
		resp["webpage_url"] = p.WebpageURL
	}
	if p.Extractor != "" {
		resp["extractor"] = p.Extractor
	}
	if p.Duration != nil {
		resp["duration"] = *p.Duration
		if text, ok := helpers.HumanDuration(p.Duration); ok {
			resp["duration_text"] = text
		}
	}
	if p.Warning != "" {
		resp["warning"] = p.Warning
	}
	if p.NeedsCookies {
		resp["needs_cookies"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// handleFile serves the finished artifact of a done job as an attachment.
func (s *Server) handleFile(c *gin.Context) {
	j, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}
	if j.Status != models.JobStatusDone {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "job has no file yet",
			"status": j.Status,
		})
		return
	}

	path := filepath.Join(s.runner.WorkDir(j.ID), j.Filename)
	if _, err := os.Stat(path); err != nil {
		log.Errorf("Job %s is done but %s is missing from disk", j.ID, path)
		c.JSON(http.StatusNotFound, gin.H{"error": "file no longer available"})
		return
	}
	c.FileAttachment(path, j.Filename)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, s.diagnostics())
}
