package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/internal/drive"
	"github.com/andresuchdata/invpulse/internal/inventory"
	"github.com/andresuchdata/invpulse/internal/storage"
)

func marginFlag() *cli.Float64Flag {
	return &cli.Float64Flag{
		Name:    "overstock-margin",
		Usage:   "Stock above target times this margin counts as overstock",
		EnvVars: []string{"INVENTORY_OVERSTOCK_MARGIN"},
	}
}

func newReconciler(c *cli.Context, cfg *config.Config) *inventory.Reconciler {
	margin := cfg.Inventory.OverstockMargin
	if c.IsSet("overstock-margin") {
		margin = c.Float64("overstock-margin")
	}
	return inventory.NewReconciler(inventory.WithOverstockMargin(margin))
}

// newDriveService returns nil without an error when Drive is not configured
// and no access token is given.
func newDriveService(ctx context.Context, cfg config.DriveConfig, accessToken string) (*drive.Service, error) {
	var (
		svc *drive.Service
		err error
	)
	switch {
	case strings.TrimSpace(accessToken) != "":
		svc, err = drive.NewServiceWithToken(ctx, accessToken)
	case cfg.Enabled():
		svc, err = drive.NewService(ctx, cfg.CredentialsJSON)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	folderID := cfg.FolderID
	if folderID == "" && cfg.FolderPath != "" {
		folderID, err = svc.FindFolderByPath(ctx, cfg.FolderPath)
		if err != nil {
			return nil, fmt.Errorf("resolve drive folder %s: %w", cfg.FolderPath, err)
		}
	}
	return svc.InFolder(folderID), nil
}

// newStorageSource returns nil without an error when no bucket is configured.
func newStorageSource(cfg config.StorageConfig) (*storage.Source, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := storage.NewS3Client(storage.S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewSource(client, cfg.Prefix), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
