package server

import (
	"github.com/gin-gonic/gin"

	"go-stream-download/internal/extractor"
	"go-stream-download/internal/jobs"
	"go-stream-download/internal/preview"
)

// Server wires the HTTP boundary to the job registry, worker pool and
// preview cache.
type Server struct {
	registry     *jobs.Registry
	pool         *jobs.Pool
	runner       *jobs.Runner
	previews     *preview.Cache
	downloadsDir string
	ffmpegPath   string
	cookiesFile  string
}

// Options carries the collaborators and paths the server needs.
type Options struct {
	Registry     *jobs.Registry
	Pool         *jobs.Pool
	Runner       *jobs.Runner
	Previews     *preview.Cache
	DownloadsDir string
	FFmpegPath   string
	CookiesFile  string
}

// New creates a server from its collaborators.
func New(opts Options) *Server {
	return &Server{
		registry:     opts.Registry,
		pool:         opts.Pool,
		runner:       opts.Runner,
		previews:     opts.Previews,
		downloadsDir: opts.DownloadsDir,
		ffmpegPath:   opts.FFmpegPath,
		cookiesFile:  opts.CookiesFile,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api")
	{
		api.GET("/preview", s.handlePreview)
		api.POST("/downloads", s.handleCreateDownload)
		api.GET("/jobs/:id", s.handleJobStatus)
	}
	r.GET("/files/:id", s.handleFile)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/diagnostics", s.handleDiagnostics)
	return r
}

func (s *Server) diagnostics() gin.H {
	ffmpegDir := extractor.LocateFFmpeg(s.ffmpegPath)
	return gin.H{
		"ffmpeg_available": ffmpegDir != "",
		"ffmpeg_location":  ffmpegDir,
		"cookies_present":  extractor.ResolveCookieFile(s.cookiesFile) != "",
		"downloads_dir":    s.downloadsDir,
		"tracked_jobs":     s.registry.Len(),
		"cached_previews":  s.previews.Len(),
	}
}
