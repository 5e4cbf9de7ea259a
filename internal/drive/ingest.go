package drive

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invpulse/internal/domain"
)

// Loader publishes a spreadsheet pulled from a remote source.
type Loader interface {
	LoadRemote(ctx context.Context, src domain.FileSource, ref string) (*domain.Snapshot, error)
	LoadLatest(ctx context.Context, src domain.FileSource) (*domain.Snapshot, error)
}

// IngestService loads Drive spreadsheets into the dashboard.
type IngestService struct {
	driveService *Service
	loader       Loader
}

func NewIngestService(driveService *Service, loader Loader) *IngestService {
	return &IngestService{
		driveService: driveService,
		loader:       loader,
	}
}

// IngestFile loads one file. An empty fileID loads the newest spreadsheet.
func (s *IngestService) IngestFile(ctx context.Context, src *Service, fileID string) (*domain.Snapshot, error) {
	if src == nil {
		src = s.driveService
	}

	var (
		snap *domain.Snapshot
		err  error
	)
	if fileID == "" {
		snap, err = s.loader.LoadLatest(ctx, src)
	} else {
		snap, err = s.loader.LoadRemote(ctx, src, fileID)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", snap.FileName).
		Int("products", len(snap.Products)).
		Msg("drive spreadsheet ingested")
	return snap, nil
}
