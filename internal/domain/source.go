package domain

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoRemoteFile is returned when a remote source holds no spreadsheet.
var ErrNoRemoteFile = errors.New("no spreadsheet found")

// RemoteFile is a spreadsheet pulled from Drive or object storage.
type RemoteFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Size         int64     `json:"size"`
	Data         []byte    `json:"-"`
}

// FileSource fetches spreadsheet bytes from a remote store.
type FileSource interface {
	// Fetch downloads the file identified by ref (a Drive file id or an
	// object key).
	Fetch(ctx context.Context, ref string) (*RemoteFile, error)
	// Latest downloads the most recently modified spreadsheet.
	Latest(ctx context.Context) (*RemoteFile, error)
}

var spreadsheetExts = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xlsm": true,
}

// IsSpreadsheetName reports whether name carries a spreadsheet extension the
// decoder understands.
func IsSpreadsheetName(name string) bool {
	return spreadsheetExts[strings.ToLower(filepath.Ext(name))]
}

// Newest returns the most recently modified file. Ties keep the first one.
func Newest(files []RemoteFile) (RemoteFile, bool) {
	if len(files) == 0 {
		return RemoteFile{}, false
	}
	newest := files[0]
	for _, f := range files[1:] {
		if f.ModifiedTime.After(newest.ModifiedTime) {
			newest = f
		}
	}
	return newest, true
}

// SourceName labels where a FileSource loads from, for snapshots and logs.
func SourceName(src FileSource) string {
	if n, ok := src.(interface{ SourceName() string }); ok {
		return n.SourceName()
	}
	return "remote"
}

// FetchScope identifies what a source can see: its credentials plus any
// folder or prefix it is limited to. Downloads are shared only between
// sources with the same scope; sources without one never share.
func FetchScope(src FileSource) (string, bool) {
	s, ok := src.(interface{ FetchScope() string })
	if !ok {
		return "", false
	}
	scope := s.FetchScope()
	return scope, scope != ""
}
