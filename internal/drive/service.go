package drive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/andresuchdata/invpulse/internal/domain"
)

const (
	googleSheetMime = "application/vnd.google-apps.spreadsheet"
	folderMime      = "application/vnd.google-apps.folder"
	xlsxMime        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	spreadsheetQuery = "(mimeType contains 'spreadsheet' or mimeType = 'text/csv') and trashed = false"
)

type Service struct {
	srv      *drive.Service
	folderID string
	// identity names the credentials behind srv.
	identity string
}

// NewService authenticates with a service account key.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse service account credentials")
	}
	svc, err := NewServiceWithClient(ctx, config.Client(ctx))
	if err != nil {
		return nil, err
	}
	svc.identity = "service-account:" + config.Email
	return svc, nil
}

// NewServiceWithToken acts on behalf of a signed-in user holding an OAuth
// access token.
func NewServiceWithToken(ctx context.Context, accessToken string) (*Service, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("access token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := NewServiceWithClient(ctx, oauth2.NewClient(ctx, ts))
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(accessToken))
	svc.identity = "token:" + hex.EncodeToString(sum[:])
	return svc, nil
}

// NewServiceWithClient builds a Service on an already authorized client.
func NewServiceWithClient(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve Drive client")
	}
	return &Service{srv: srv, identity: fmt.Sprintf("client:%p", client)}, nil
}

// InFolder scopes Latest to one folder. An empty id searches all of Drive.
func (s *Service) InFolder(folderID string) *Service {
	c := *s
	c.folderID = folderID
	return &c
}

// FetchScope is the credential identity plus the folder Latest searches.
func (s *Service) FetchScope() string {
	return "drive:" + s.identity + "|folder=" + s.folderID
}

// SourceName labels snapshots loaded from Drive.
func (s *Service) SourceName() string { return "drive" }

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

func (f *File) remote() domain.RemoteFile {
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	return domain.RemoteFile{
		ID:           f.ID,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: modified,
		Size:         f.Size,
	}
}

func fromDrive(f *drive.File) *File {
	return &File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
	}
}

// ListFiles lists the spreadsheets in a folder, newest first.
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	q := spreadsheetQuery
	if folderID != "" {
		q = fmt.Sprintf("'%s' in parents and %s", escapeQuery(folderID), q)
	}

	result, err := s.srv.Files.List().
		Q(q).
		OrderBy("modifiedTime desc").
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve files")
	}

	files := make([]*File, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, fromDrive(f))
	}
	return files, nil
}

// LatestFile returns metadata of the most recently modified spreadsheet.
func (s *Service) LatestFile(ctx context.Context) (*File, error) {
	q := spreadsheetQuery
	if s.folderID != "" {
		q = fmt.Sprintf("'%s' in parents and %s", escapeQuery(s.folderID), q)
	}

	result, err := s.srv.Files.List().
		Q(q).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve latest file")
	}
	if len(result.Files) == 0 {
		return nil, domain.ErrNoRemoteFile
	}
	return fromDrive(result.Files[0]), nil
}

// Latest downloads the most recently modified spreadsheet.
func (s *Service) Latest(ctx context.Context) (*domain.RemoteFile, error) {
	f, err := s.LatestFile(ctx)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, f.ID)
}

// Fetch downloads a file by id. Native Google Sheets are exported as XLSX.
func (s *Service) Fetch(ctx context.Context, fileID string) (*domain.RemoteFile, error) {
	meta, err := s.srv.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, size").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read metadata of %s", fileID)
	}
	f := fromDrive(meta)

	var resp *http.Response
	if f.MimeType == googleSheetMime {
		resp, err = s.srv.Files.Export(fileID, xlsxMime).Context(ctx).Download()
		f.Name = exportName(f.Name)
	} else {
		resp, err = s.srv.Files.Get(fileID).Context(ctx).Download()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to download %s", f.Name)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", f.Name)
	}

	remote := f.remote()
	remote.Data = data
	remote.Size = int64(len(data))
	return &remote, nil
}

// exportName names an exported Google Sheet. Sheets converted on upload keep
// the original extension, which no longer matches the exported bytes.
func exportName(name string) string {
	switch ext := path.Ext(name); strings.ToLower(ext) {
	case ".csv", ".xls", ".xlsx", ".xlsm":
		name = strings.TrimSuffix(name, ext)
	}
	return name + ".xlsx"
}

// DownloadFile streams a stored file to w.
func (s *Service) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return errors.Wrap(err, "unable to download file")
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	folders := strings.Split(path, "/")
	currentID := "root"

	for _, folder := range folders {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				escapeQuery(currentID), escapeQuery(folder), folderMime)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", errors.Wrapf(err, "error finding folder %s", folder)
		}

		if len(result.Files) == 0 {
			return "", errors.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

var _ domain.FileSource = (*Service)(nil)
