package meta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// eggNOG 5.0 per-taxonomic-level downloads.
const (
	DefaultBaseURL = "http://eggnog5.embl.de/download/eggnog_5.0/per_tax_level"
	DefaultTaxon   = "33208" // Metazoa
)

// EggNOGURLs returns the members and annotations URLs of a taxonomic level.
func EggNOGURLs(baseURL, taxon string) (members, annotations string) {
	base := strings.TrimRight(baseURL, "/")
	members = fmt.Sprintf("%s/%s/%s_members.tsv.gz", base, taxon, taxon)
	annotations = fmt.Sprintf("%s/%s/%s_annotations.tsv.gz", base, taxon, taxon)
	return
}

// Downloader fetches eggNOG files over HTTP.
type Downloader struct {
	client *http.Client
	logger *zap.Logger
	force  bool
}

// NewDownloader creates a downloader. Existing files are kept unless
// force is set.
func NewDownloader(force bool) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 30 * time.Minute},
		logger: zap.NewNop(),
		force:  force,
	}
}

// SetLogger sets the logger for progress messages.
func (d *Downloader) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Fetch downloads the members and annotations files of cfg to the paths
// the meta gene run reads them from.
func (d *Downloader) Fetch(ctx context.Context, cfg Config) error {
	members, annotations := EggNOGURLs(cfg.BaseURL, cfg.Taxon)
	if _, err := d.Download(ctx, members, cfg.Members); err != nil {
		return err
	}
	_, err := d.Download(ctx, annotations, cfg.Annotations)
	return err
}

// Download fetches url to destPath and returns the number of bytes
// written. A gzip body saved to a path without ".gz" is decompressed.
// The file is written to a temporary name and renamed when complete.
func (d *Downloader) Download(ctx context.Context, url, destPath string) (int64, error) {
	if info, err := os.Stat(destPath); err == nil && !d.force {
		d.logger.Info("already downloaded, skipping",
			zap.String("path", destPath), zap.String("size", formatSize(info.Size())))
		return 0, nil
	}
	if err := table.EnsureDir(destPath); err != nil {
		return 0, err
	}

	d.logger.Info("downloading", zap.String("url", url), zap.String("path", destPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP error fetching %s: %s", url, resp.Status)
	}

	pw := &progressWriter{
		total:     resp.ContentLength,
		lastPrint: time.Now(),
		logger:    d.logger,
	}
	var body io.Reader = io.TeeReader(resp.Body, pw)
	if strings.HasSuffix(url, ".gz") && !strings.HasSuffix(destPath, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return 0, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download %s: %w", url, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename file: %w", err)
	}

	d.logger.Info("downloaded",
		zap.String("path", filepath.Base(destPath)),
		zap.String("received", formatSize(pw.downloaded)),
		zap.String("written", formatSize(n)))
	return n, nil
}

// progressWriter logs download progress at most once per second.
type progressWriter struct {
	total      int64
	downloaded int64
	lastPrint  time.Time
	logger     *zap.Logger
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			pw.logger.Debug("progress",
				zap.String("downloaded", formatSize(pw.downloaded)),
				zap.String("total", formatSize(pw.total)),
				zap.Float64("percent", pct))
		} else {
			pw.logger.Debug("progress", zap.String("downloaded", formatSize(pw.downloaded)))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
