package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/drive"
	"github.com/andresuchdata/invpulse/internal/service"
)

func driveCommand() *cli.Command {
	return &cli.Command{
		Name:  "drive",
		Usage: "List, download or analyze spreadsheets in Google Drive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Usage:   "OAuth access token; overrides the service account",
				EnvVars: []string{"GOOGLE_DRIVE_ACCESS_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "folder-id",
				Usage: "Drive folder to search (default: GOOGLE_DRIVE_FOLDER_ID)",
			},
			&cli.StringFlag{
				Name:  "file-id",
				Usage: "Analyze one file by id",
			},
			&cli.BoolFlag{
				Name:  "latest",
				Usage: "Analyze the most recently modified spreadsheet",
			},
			&cli.StringFlag{
				Name:  "sync-dir",
				Usage: "Download every spreadsheet in the folder as CSV into this directory",
			},
			marginFlag(),
		},
		Action: runDrive,
	}
}

func runDrive(c *cli.Context) error {
	cfg := config.Load()
	driveCfg := cfg.Drive
	if c.IsSet("folder-id") {
		driveCfg.FolderID = c.String("folder-id")
	}

	svc, err := newDriveService(c.Context, driveCfg, c.String("token"))
	if err != nil {
		return err
	}
	if svc == nil {
		return cli.Exit("drive is not configured: set GOOGLE_DRIVE_CREDENTIALS_JSON or pass --token", 2)
	}

	switch {
	case c.String("sync-dir") != "":
		paths, err := drive.NewDownloader(svc).DownloadFolderCSV(c.Context, drive.DownloadOptions{
			FolderID:    driveCfg.FolderID,
			DownloadDir: c.String("sync-dir"),
		})
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, paths)

	case c.String("file-id") != "" || c.Bool("latest"):
		dashboard := service.NewDashboard(newReconciler(c, cfg), nil)
		snap, err := drive.NewIngestService(svc, dashboard).IngestFile(c.Context, svc, c.String("file-id"))
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, snap.Summary())

	default:
		files, err := svc.ListFiles(c.Context, driveCfg.FolderID)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, files)
	}
}

func storageCommand() *cli.Command {
	return &cli.Command{
		Name:  "storage",
		Usage: "List, upload, download or analyze spreadsheets in the S3-compatible bucket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Key prefix (default: STORAGE_PREFIX)",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Analyze one object; relative keys are resolved under the prefix",
			},
			&cli.BoolFlag{
				Name:  "latest",
				Usage: "Analyze the most recently modified spreadsheet",
			},
			&cli.StringFlag{
				Name:  "put",
				Usage: "Upload a local .csv/.xlsx file under the prefix",
			},
			&cli.StringFlag{
				Name:  "sync-dir",
				Usage: "Download every spreadsheet under the prefix into this directory",
			},
			marginFlag(),
		},
		Action: runStorage,
	}
}

func runStorage(c *cli.Context) error {
	cfg := config.Load()
	storageCfg := cfg.Storage
	if c.IsSet("prefix") {
		storageCfg.Prefix = c.String("prefix")
	}

	src, err := newStorageSource(storageCfg)
	if err != nil {
		return err
	}
	if src == nil {
		return cli.Exit("object storage is not configured: set STORAGE_ENDPOINT and STORAGE_BUCKET", 2)
	}

	switch {
	case c.String("put") != "":
		path := c.String("put")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key, err := src.Put(c.Context, filepath.Base(path), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "uploaded %s to %s\n", path, key)
		return nil

	case c.String("sync-dir") != "":
		paths, err := src.SyncDir(c.Context, c.String("sync-dir"))
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, paths)

	case c.String("key") != "" || c.Bool("latest"):
		dashboard := service.NewDashboard(newReconciler(c, cfg), nil)
		var snap *domain.Snapshot
		if key := c.String("key"); key != "" {
			snap, err = dashboard.LoadRemote(c.Context, src, key)
		} else {
			snap, err = dashboard.LoadLatest(c.Context, src)
		}
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, snap.Summary())

	default:
		files, err := src.Spreadsheets(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, files)
	}
}
