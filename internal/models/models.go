package models

import "time"

// DownloadType selects whether a job produces a video file or extracted audio.
type DownloadType string

const (
	DownloadTypeVideo DownloadType = "video"
	DownloadTypeAudio DownloadType = "audio"
)

// Valid reports whether the value is one of the accepted download types.
func (d DownloadType) Valid() bool {
	return d == DownloadTypeVideo || d == DownloadTypeAudio
}

// AudioFormat selects the container for audio jobs: re-encode to mp3 or keep
// whatever the source provides.
type AudioFormat string

const (
	AudioFormatMP3      AudioFormat = "mp3"
	AudioFormatOriginal AudioFormat = "original"
)

// Valid reports whether the value is one of the accepted audio formats.
func (f AudioFormat) Valid() bool {
	return f == AudioFormatMP3 || f == AudioFormatOriginal
}

// JobStatus is the lifecycle state of a download job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Job is one user-initiated download. The registry owns every Job for its
// whole life; in a terminal state exactly one of Filename or Error is set.
type Job struct {
	ID           string
	Status       JobStatus
	DownloadType DownloadType
	AudioFormat  AudioFormat
	URL          string
	Filename     string
	Checksum     string
	Error        string
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// Preview is cached metadata for a URL, fetched without downloading.
// Entries are replaced wholesale on refresh, never mutated field by field.
type Preview struct {
	URL          string
	Title        string
	Uploader     string
	Description  string
	Duration     *float64
	Thumbnail    string
	WebpageURL   string
	Extractor    string
	Warning      string
	NeedsCookies bool
	FetchedAt    time.Time
}
