package extractor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/helpers"
	"go-stream-download/internal/models"
)

// Per-mode network limits. A single job must never stall a worker
// indefinitely, so both modes run with bounded retries and socket timeouts.
const (
	fetchRetries          = "5"
	fetchFragmentRetries  = "5"
	fetchExtractorRetries = "3"
	fetchSocketTimeout    = 20
	previewRetries        = "2"
	previewSocketTimeout  = 15
)

// YouTube metadata lookups go through alternate player clients, which are
// less prone to bot checks than the default web client.
const youtubePlayerClients = "youtube:player_client=android,web_safari"

// ClientConfig carries the outbound identity and local overrides for the
// yt-dlp wrapper.
type ClientConfig struct {
	UserAgent      string
	AcceptLanguage string
	CookiesFile    string
	FFmpegPath     string
	VerboseLogs    bool
}

// Client invokes yt-dlp through the go-ytdlp wrapper in two modes: Fetch
// (download into a work dir) and Preview (metadata only).
type Client struct {
	cfg ClientConfig
}

// NewClient creates a new extractor client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{cfg: cfg}
}

// FetchResult is the metadata the runner needs for artifact naming. Fields
// may be empty when the extractor reports nothing usable; renaming is
// best-effort downstream.
type FetchResult struct {
	Title    string
	SourceID string
	Ext      string
}

// Fetch downloads the URL into workDir under the given policy, collecting
// extractor output into logs. Artifacts are written under an id-based
// template; the caller renames afterwards, because source titles routinely
// contain characters that are illegal in filenames.
func (c *Client) Fetch(ctx context.Context, url, workDir string, pol FetchPolicy, logs *LogBuffer) (*FetchResult, error) {
	dl := ytdlp.New().
		Output(filepath.Join(workDir, "%(id)s.%(ext)s")).
		NoPlaylist().
		Retries(fetchRetries).
		FragmentRetries(fetchFragmentRetries).
		ExtractorRetries(fetchExtractorRetries).
		SocketTimeout(fetchSocketTimeout).
		WindowsFilenames().
		UserAgent(c.cfg.UserAgent).
		AddHeaders("Accept-Language:" + c.cfg.AcceptLanguage).
		Format(pol.Format)

	if pol.CookieFile != "" {
		dl = dl.Cookies(pol.CookieFile)
	}
	if pol.FFmpegDir != "" {
		dl = dl.FFmpegLocation(pol.FFmpegDir)
	} else if pol.DisableFixup {
		dl = dl.Fixup("never")
	}
	if pol.ExtractAudio {
		dl = dl.ExtractAudio().
			AudioFormat(pol.AudioFormat).
			AudioQuality(pol.AudioQuality)
	}
	if pol.MergeOutputFormat != "" {
		dl = dl.MergeOutputFormat(pol.MergeOutputFormat)
	}

	log.WithField("url", url).Debugf("Invoking extractor fetch into %s", workDir)
	result, err := dl.Run(ctx, url)
	collectLogs(result, logs)
	if err != nil {
		return nil, errors.Wrap(err, "extractor fetch")
	}

	info := firstEntry(result)
	if info == nil {
		log.Debugf("Extractor returned no parseable metadata for %s", url)
		return &FetchResult{}, nil
	}
	fr := &FetchResult{SourceID: info.ID}
	if info.Title != nil {
		fr.Title = *info.Title
	}
	fr.Ext = info.Extension
	return fr, nil
}

// Preview resolves metadata for a URL without downloading. Facebook URLs
// without cookies are accommodated with a non-fatal warning instead of a hard
// failure; every other unrecoverable error is returned as-is.
func (c *Client) Preview(ctx context.Context, url string) (models.Preview, error) {
	dl := ytdlp.New().
		SkipDownload().
		NoPlaylist().
		Retries(previewRetries).
		SocketTimeout(previewSocketTimeout).
		UserAgent(c.cfg.UserAgent).
		AddHeaders("Accept-Language:" + c.cfg.AcceptLanguage).
		ExtractorArgs(youtubePlayerClients)

	cookieFile := ResolveCookieFile(c.cfg.CookiesFile)
	if cookieFile != "" {
		dl = dl.Cookies(cookieFile)
	}

	log.WithField("url", url).Debug("Invoking extractor preview")
	result, err := dl.Run(ctx, url)
	if err != nil {
		return models.Preview{}, errors.Wrap(err, "extractor preview")
	}

	info := firstEntry(result)
	if info == nil {
		return models.Preview{}, errors.New("extractor returned no metadata")
	}

	p := models.Preview{
		URL:       url,
		Title:     helpers.FixMojibake(deref(info.Title)),
		Uploader:  helpers.FixMojibake(deref(info.Uploader)),
		Duration:  info.Duration,
		Thumbnail: bestThumbnail(info),
		FetchedAt: time.Now(),
	}
	if info.Description != nil {
		p.Description = helpers.FixMojibake(*info.Description)
	}
	if info.WebpageURL != nil {
		p.WebpageURL = *info.WebpageURL
	}
	p.Extractor = deref(info.ExtractorKey)
	if p.Extractor == "" {
		p.Extractor = deref(info.Extractor)
	}

	if strings.HasPrefix(strings.ToLower(p.Extractor), "facebook") && cookieFile == "" {
		p.NeedsCookies = true
		if p.Title == "" || p.Thumbnail == "" || p.Description == "" {
			p.Warning = "Facebook previews may be limited without cookies. If the title, thumbnail or description is missing, set STREAMDL_COOKIES_FILE or place a cookies.txt next to the binary."
		}
	}
	return p, nil
}

// firstEntry returns the single item to use from an extractor result,
// collapsing playlist/multi-video containers to their first entry.
func firstEntry(result *ytdlp.Result) *ytdlp.ExtractedInfo {
	if result == nil {
		return nil
	}
	infos, err := result.GetExtractedInfo()
	if err != nil {
		log.WithError(err).Debug("Could not parse extractor metadata")
		return nil
	}
	if len(infos) == 0 {
		return nil
	}
	info := infos[0]
	if (info.Type == "playlist" || info.Type == "multi_video") && len(info.Entries) > 0 {
		return info.Entries[0]
	}
	return info
}

// bestThumbnail picks the top-level thumbnail when present, else the last
// entry of the thumbnails list (yt-dlp orders them by ascending quality).
func bestThumbnail(info *ytdlp.ExtractedInfo) string {
	if info.Thumbnail != nil && strings.TrimSpace(*info.Thumbnail) != "" {
		return strings.TrimSpace(*info.Thumbnail)
	}
	for i := len(info.Thumbnails) - 1; i >= 0; i-- {
		t := info.Thumbnails[i]
		if t == nil {
			continue
		}
		if url := strings.TrimSpace(t.URL); url != "" {
			return url
		}
	}
	return ""
}

// collectLogs feeds the extractor's stderr into the job log buffer, keyed by
// yt-dlp's own line prefixes.
func collectLogs(result *ytdlp.Result, logs *LogBuffer) {
	if result == nil || logs == nil {
		return
	}
	for _, line := range strings.Split(result.Stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ERROR"):
			logs.Error(line)
		case strings.HasPrefix(line, "WARNING"):
			logs.Warning(line)
		default:
			logs.Debug(line)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
