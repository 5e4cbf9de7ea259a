package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/invpulse/internal/domain"
)

// TokenServiceFunc builds a Service for a user's OAuth access token.
type TokenServiceFunc func(ctx context.Context, accessToken string) (*Service, error)

type Handler struct {
	service       *Service
	ingestService *IngestService
	withToken     TokenServiceFunc
}

// NewHandler serves Drive browsing and ingestion. service may be nil when no
// service account is configured; requests must then carry a bearer token.
func NewHandler(service *Service, ingestService *IngestService, withToken TokenServiceFunc) *Handler {
	if withToken == nil {
		withToken = NewServiceWithToken
	}
	return &Handler{
		service:       service,
		ingestService: ingestService,
		withToken:     withToken,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/latest", h.LatestFile).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods("POST")
}

// Router returns a mux router with the Drive routes registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) serviceFor(r *http.Request) (*Service, error) {
	return ServiceForRequest(r, h.service, h.withToken)
}

// ErrNoCredentials is returned when neither a service account nor a bearer
// token is available.
var ErrNoCredentials = errors.New("drive is not configured; send an access token")

// ServiceForRequest prefers the caller's own bearer token over the service
// account. A nil withToken uses NewServiceWithToken.
func ServiceForRequest(r *http.Request, fallback *Service, withToken TokenServiceFunc) (*Service, error) {
	if token, ok := BearerToken(r.Header.Get("Authorization")); ok {
		if withToken == nil {
			withToken = NewServiceWithToken
		}
		return withToken(r.Context(), token)
	}
	if fallback == nil {
		return nil, ErrNoCredentials
	}
	return fallback, nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	svc, err := h.serviceFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	folderID := query.Get("folderId")

	if folderPath := query.Get("path"); folderPath != "" {
		folderID, err = svc.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := svc.ListFiles(r.Context(), folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) LatestFile(w http.ResponseWriter, r *http.Request) {
	svc, err := h.serviceFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if folderID := r.URL.Query().Get("folderId"); folderID != "" {
		svc = svc.InFolder(folderID)
	}

	file, err := svc.LatestFile(r.Context())
	if errors.Is(err, domain.ErrNoRemoteFile) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}
	svc, err := h.serviceFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	file, err := svc.Fetch(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	_, _ = w.Write(file.Data)
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	if h.ingestService == nil {
		http.Error(w, "ingestion is not available", http.StatusServiceUnavailable)
		return
	}
	svc, err := h.serviceFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	snap, err := h.ingestService.IngestFile(r.Context(), svc, r.URL.Query().Get("fileId"))
	if errors.Is(err, domain.ErrNoRemoteFile) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "File ingested successfully",
		"summary": snap.Summary(),
	})
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
