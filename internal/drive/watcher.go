package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/sheet"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps Service to download files from a specific folder.
type Downloader struct {
	service *Service
}

// NewDownloader creates a new Downloader.
func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolderCSV saves every spreadsheet in the folder as CSV under
// DownloadDir and returns the local paths. Workbooks are converted from
// their first sheet; files that cannot be decoded are skipped.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.service.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		remote, err := d.service.Fetch(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}

		rows, err := sheet.Decode(remote.Name, remote.Data)
		if err != nil {
			log.Warn().Err(err).Str("file", remote.Name).Msg("skipping undecodable drive file")
			continue
		}

		csvPath := filepath.Join(opts.DownloadDir, csvName(remote.Name))
		if err := writeCSVFile(csvPath, rows); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}

func csvName(name string) string {
	base := filepath.Base(name)
	if !domain.IsSpreadsheetName(base) {
		return base + ".csv"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}
