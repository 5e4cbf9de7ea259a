package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invpulse/internal/domain"
)

// Source serves the spreadsheets stored under one key prefix.
type Source struct {
	client ObjectStorage
	prefix string
	id     string
}

func NewSource(client ObjectStorage, prefix string) *Source {
	return &Source{
		client: client,
		prefix: strings.TrimSpace(prefix),
		id:     uuid.NewString(),
	}
}

// FetchScope is unique per Source, so only loads through the same Source
// share downloads.
func (s *Source) FetchScope() string {
	return "storage:" + s.id + "|prefix=" + s.prefix
}

// SourceName labels snapshots loaded from object storage.
func (s *Source) SourceName() string { return "storage" }

// Spreadsheets lists .csv and .xlsx objects under the prefix, newest first.
func (s *Source) Spreadsheets(ctx context.Context) ([]domain.RemoteFile, error) {
	objects, err := s.client.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects for prefix %s: %w", s.prefix, err)
	}

	files := make([]domain.RemoteFile, 0, len(objects))
	for _, obj := range objects {
		if !domain.IsSpreadsheetName(obj.Key) {
			continue
		}
		files = append(files, domain.RemoteFile{
			ID:           obj.Key,
			Name:         path.Base(obj.Key),
			ModifiedTime: obj.LastModified,
			Size:         obj.Size,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})
	return files, nil
}

// Fetch downloads one object. ref may be relative to the prefix.
func (s *Source) Fetch(ctx context.Context, ref string) (*domain.RemoteFile, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("object key is required")
	}
	key := resolveObjectKey(s.prefix, ref)

	data, err := s.client.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &domain.RemoteFile{
		ID:   key,
		Name: path.Base(key),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// Latest downloads the most recently modified spreadsheet under the prefix.
func (s *Source) Latest(ctx context.Context) (*domain.RemoteFile, error) {
	files, err := s.Spreadsheets(ctx)
	if err != nil {
		return nil, err
	}
	newest, ok := domain.Newest(files)
	if !ok {
		return nil, domain.ErrNoRemoteFile
	}

	f, err := s.Fetch(ctx, newest.ID)
	if err != nil {
		return nil, err
	}
	f.ModifiedTime = newest.ModifiedTime
	return f, nil
}

// Put uploads a spreadsheet under the prefix and returns its key.
func (s *Source) Put(ctx context.Context, name string, data []byte) (string, error) {
	if !domain.IsSpreadsheetName(name) {
		return "", fmt.Errorf("%s is not a spreadsheet", name)
	}
	key := resolveObjectKey(s.prefix, path.Base(filepath.ToSlash(name)))
	if err := s.client.UploadObject(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// SyncDir mirrors every spreadsheet under the prefix into destDir, keeping
// the key layout below the prefix.
func (s *Source) SyncDir(ctx context.Context, destDir string) ([]string, error) {
	files, err := s.Spreadsheets(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no spreadsheets found for prefix %s: %w", s.prefix, domain.ErrNoRemoteFile)
	}

	localPaths := make([]string, 0, len(files))
	for _, f := range files {
		rel := filepath.FromSlash(objectRelativePath(s.prefix, f.ID))
		if !filepath.IsLocal(rel) {
			log.Warn().Str("key", f.ID).Msg("skipping object whose key leaves the sync directory")
			continue
		}
		localPath := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		data, err := s.client.GetObject(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed writing %s: %w", localPath, err)
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, ref string) string {
	if ref == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(strings.TrimSpace(ref), "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	refTrimmed := strings.TrimPrefix(strings.TrimSpace(ref), "/")

	if strings.HasPrefix(refTrimmed, prefixTrimmed+"/") {
		return refTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, refTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return path.Base(key)
	}
	return rel
}

var _ domain.FileSource = (*Source)(nil)
