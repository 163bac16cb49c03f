package extractor

import (
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/models"
)

// Target bitrate for mp3 re-encodes.
const mp3Quality = "192"

// FetchPolicy is the format and post-processing configuration handed to the
// extractor for one fetch.
type FetchPolicy struct {
	Format            string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	MergeOutputFormat string
	// DisableFixup skips container fixup steps that require ffmpeg when no
	// ffmpeg is available, instead of letting them fail the job.
	DisableFixup bool
	CookieFile   string
	FFmpegDir    string
}

// BuildFetchPolicy maps download kind and audio preference onto an extractor
// policy, degrading gracefully when no ffmpeg is available:
//
//	audio + mp3 + ffmpeg      -> best audio, re-encoded to mp3
//	audio otherwise           -> best audio in the source container
//	video + ffmpeg            -> best video+audio, merged into mp4
//	video without ffmpeg      -> single pre-muxed "best" stream
func BuildFetchPolicy(kind models.DownloadType, audioFormat models.AudioFormat, cookieFile, ffmpegDir string) FetchPolicy {
	pol := FetchPolicy{
		CookieFile:   cookieFile,
		FFmpegDir:    ffmpegDir,
		DisableFixup: ffmpegDir == "",
	}

	if kind == models.DownloadTypeAudio {
		pol.Format = "bestaudio/best"
		if audioFormat == models.AudioFormatMP3 && ffmpegDir != "" {
			pol.ExtractAudio = true
			pol.AudioFormat = "mp3"
			pol.AudioQuality = mp3Quality
		}
		return pol
	}

	if ffmpegDir != "" {
		pol.Format = "bv*+ba/best"
		pol.MergeOutputFormat = "mp4"
	} else {
		// Combining separate video/audio streams needs ffmpeg, so settle for
		// whatever single file the source offers.
		pol.Format = "best[ext=mp4]/best"
	}
	return pol
}

// ResolveCookieFile returns a usable cookie file path: the override when it
// points at a readable file, else a conventional cookies.txt next to the
// process, else empty.
func ResolveCookieFile(override string) string {
	if override != "" {
		if fileExists(override) {
			return override
		}
		log.Warnf("Configured cookie file %s not found, ignoring", override)
	}
	if fileExists("cookies.txt") {
		return "cookies.txt"
	}
	return ""
}

// LocateFFmpeg returns a directory containing an ffmpeg binary, probing the
// override (a directory or the binary itself), conventional bundled
// locations, then PATH. An empty result means no transcoding engine.
func LocateFFmpeg(override string) string {
	if override != "" {
		if st, err := os.Stat(override); err == nil {
			if st.IsDir() {
				if hasFFmpegBinary(override) {
					return override
				}
			} else {
				return filepath.Dir(override)
			}
		}
		log.Warnf("Configured ffmpeg path %s not usable, probing defaults", override)
	}

	for _, dir := range []string{
		filepath.Join("ffmpeg", "bin"),
		filepath.Join("tools", "ffmpeg", "bin"),
	} {
		if hasFFmpegBinary(dir) {
			return dir
		}
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(path)
	}
	return ""
}

func hasFFmpegBinary(dir string) bool {
	for _, name := range []string{"ffmpeg", "ffmpeg.exe", "ffprobe", "ffprobe.exe"} {
		if fileExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
