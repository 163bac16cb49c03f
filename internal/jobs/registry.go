package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/models"
)

// Registry holds every job for the lifetime of the process. All access goes
// through it; callers only ever see snapshot copies, never shared pointers.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
	now  func() time.Time
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*models.Job),
		now:  time.Now,
	}
}

// Create registers a new queued job and returns its id.
func (r *Registry) Create(kind models.DownloadType, format models.AudioFormat, url string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.jobs[id] = &models.Job{
		ID:           id,
		Status:       models.JobStatusQueued,
		DownloadType: kind,
		AudioFormat:  format,
		URL:          url,
		CreatedAt:    r.now(),
	}
	r.mu.Unlock()
	log.WithField("job", id).Infof("Queued %s download for %s", kind, url)
	return id
}

// Get returns a snapshot of the job, or false when the id is unknown.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// MarkRunning transitions a job to the running state.
func (r *Registry) MarkRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Status = models.JobStatusRunning
	}
}

// MarkDone records a successful finish with the produced filename and its
// checksum. The checksum may be empty when hashing failed; that alone never
// fails a job.
func (r *Registry) MarkDone(id, filename, checksum string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Status = models.JobStatusDone
		j.Filename = filename
		j.Checksum = checksum
		j.FinishedAt = r.now()
	}
}

// MarkError records a failed finish with a user-facing message.
func (r *Registry) MarkError(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Status = models.JobStatusError
		j.Error = message
		j.FinishedAt = r.now()
	}
}

// EvictTerminal removes terminal jobs that finished before the retention
// window and returns their ids so the caller can clean up any leftover
// working directories.
func (r *Registry) EvictTerminal(olderThan time.Duration) []string {
	cutoff := r.now().Add(-olderThan)
	var evicted []string
	r.mu.Lock()
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()
	if len(evicted) > 0 {
		log.Debugf("Evicted %d finished jobs older than %s", len(evicted), olderThan)
	}
	return evicted
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
