package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/extractor"
	"go-stream-download/internal/helpers"
)

var (
	// ErrNoArtifact means the extractor reported success but its working
	// directory ended up without a single file.
	ErrNoArtifact = errors.New("no file was produced")
	// ErrEmptyArtifact means the picked artifact exists but is zero bytes.
	ErrEmptyArtifact = errors.New("downloaded file is empty (0 bytes)")

	errorLogTail = 25
)

// Fetcher downloads one URL into a working directory under a fetch policy.
// Satisfied by extractor.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url, workDir string, pol extractor.FetchPolicy, logs *extractor.LogBuffer) (*extractor.FetchResult, error)
}

// RunnerConfig carries the paths and toggles a runner needs per process.
type RunnerConfig struct {
	DownloadsDir string
	CookiesFile  string
	FFmpegPath   string
	VerboseLogs  bool
}

// Runner executes one job end to end: fetch, artifact pick, integrity check,
// rename into the downloads directory, terminal bookkeeping.
type Runner struct {
	cfg      RunnerConfig
	fetcher  Fetcher
	registry *Registry
}

// NewRunner creates a runner over the given registry and fetcher.
func NewRunner(cfg RunnerConfig, fetcher Fetcher, registry *Registry) *Runner {
	return &Runner{cfg: cfg, fetcher: fetcher, registry: registry}
}

// WorkDir returns the per-job directory under the downloads root. The
// finished artifact stays here until the job is evicted.
func (r *Runner) WorkDir(jobID string) string {
	return filepath.Join(r.cfg.DownloadsDir, jobID)
}

// Run drives the job with the given id to a terminal state. It never returns
// an error; every failure is recorded on the job instead.
func (r *Runner) Run(ctx context.Context, jobID string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("Job %s panicked: %v", jobID, rec)
			r.registry.MarkError(jobID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	job, ok := r.registry.Get(jobID)
	if !ok {
		log.Warnf("Run requested for unknown job %s", jobID)
		return
	}
	r.registry.MarkRunning(jobID)

	logs := extractor.NewLogBuffer(r.cfg.VerboseLogs)
	cookieFile := extractor.ResolveCookieFile(r.cfg.CookiesFile)
	ffmpegDir := extractor.LocateFFmpeg(r.cfg.FFmpegPath)
	pol := extractor.BuildFetchPolicy(job.DownloadType, job.AudioFormat, cookieFile, ffmpegDir)

	workDir := r.WorkDir(jobID)
	if err := r.resetWorkDir(workDir); err != nil {
		r.fail(jobID, job.URL, cookieFile, logs, err)
		return
	}

	started := time.Now()
	meta, err := r.fetcher.Fetch(ctx, job.URL, workDir, pol, logs)
	if err != nil {
		r.fail(jobID, job.URL, cookieFile, logs, err)
		return
	}

	artifact, err := latestFile(workDir)
	if err != nil {
		r.fail(jobID, job.URL, cookieFile, logs, err)
		return
	}

	finalPath := r.finalizeName(jobID, artifact, meta)

	checksum, err := helpers.FileChecksum(finalPath)
	if err != nil {
		log.WithError(err).Warnf("Could not checksum %s", finalPath)
		checksum = ""
	}

	r.registry.MarkDone(jobID, filepath.Base(finalPath), checksum)
	log.WithField("job", jobID).Infof("Finished %s in %s", filepath.Base(finalPath), time.Since(started).Round(time.Millisecond))
}

// fail records the terminal error with a user hint and the extractor log tail.
func (r *Runner) fail(jobID, url, cookieFile string, logs *extractor.LogBuffer, err error) {
	base := err.Error()
	hint := extractor.Hint(base, url, cookieFile)
	msg := extractor.ComposeError(base, hint, logs.Tail(errorLogTail))
	log.WithField("job", jobID).Errorf("Download failed: %s", base)
	r.registry.MarkError(jobID, msg)
}

// resetWorkDir wipes and recreates the per-job scratch directory so retries
// never pick up artifacts from an earlier attempt.
func (r *Runner) resetWorkDir(workDir string) error {
	if err := os.RemoveAll(workDir); err != nil {
		return errors.Wrap(err, "clearing work dir")
	}
	if !helpers.CheckAndMakeDir(workDir) {
		return errors.Errorf("could not create work dir %s", workDir)
	}
	return nil
}

// latestFile picks the artifact to keep: the most recently modified regular
// file in the work dir. Fetches with post-processing leave intermediate files
// behind on some sources; the newest one is the finished product.
func latestFile(dir string) (string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "listing work dir")
	}

	var (
		newest     string
		newestTime time.Time
		newestSize int64
	)
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, de.Name())
			newestTime = info.ModTime()
			newestSize = info.Size()
		}
	}
	if newest == "" {
		return "", ErrNoArtifact
	}
	if newestSize <= 0 {
		return "", ErrEmptyArtifact
	}
	return newest, nil
}

// finalizeName renames the artifact in place to a human-readable, sanitized,
// deduplicated name. Without extractor metadata the id-based name is kept
// as-is. Renaming is best-effort: if it fails the job still succeeds under
// the extractor's own name.
func (r *Runner) finalizeName(jobID, artifact string, meta *extractor.FetchResult) string {
	if meta == nil {
		return artifact
	}

	title := helpers.FixMojibake(meta.Title)
	sourceID := meta.SourceID
	if title == "" {
		title = "download"
	}
	if sourceID == "" {
		sourceID = jobID
	}

	ext := filepath.Ext(artifact)
	stem := helpers.SanitizeFilename(fmt.Sprintf("%s [%s]", title, sourceID))
	want := filepath.Join(filepath.Dir(artifact), stem+ext)
	if want == artifact {
		return artifact
	}
	target := helpers.DedupePath(want)

	if err := os.Rename(artifact, target); err != nil {
		log.WithError(err).Warnf("Could not rename %s, keeping extractor name", artifact)
		return artifact
	}
	return target
}
