package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/drive"
	"github.com/andresuchdata/invpulse/internal/inventory"
	"github.com/andresuchdata/invpulse/internal/service"
	"github.com/andresuchdata/invpulse/internal/sheet"
	"github.com/andresuchdata/invpulse/internal/storage"
)

const defaultMaxUploadBytes = 32 << 20

type DashboardHandler struct {
	dashboard      *service.Dashboard
	drive          *drive.Service
	driveTokens    drive.TokenServiceFunc
	storage        *storage.Source
	maxUploadBytes int64
}

type DashboardOptions struct {
	// Drive is the service account client; nil requires a bearer token.
	Drive       *drive.Service
	DriveTokens drive.TokenServiceFunc
	// Storage is nil when no bucket is configured.
	Storage        *storage.Source
	MaxUploadBytes int64
}

func NewDashboardHandler(dashboard *service.Dashboard, opts DashboardOptions) *DashboardHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &DashboardHandler{
		dashboard:      dashboard,
		drive:          opts.Drive,
		driveTokens:    opts.DriveTokens,
		storage:        opts.Storage,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (h *DashboardHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/snapshot", h.GetSnapshot)
	group.DELETE("/snapshot", h.ResetSnapshot)
	group.GET("/metrics", h.GetMetrics)
	group.GET("/products", h.GetProducts)
	group.GET("/products/low_stock", h.GetLowStock)
	group.GET("/products/overstock", h.GetOverstock)
	group.POST("/upload", h.UploadFile)
	group.POST("/rows", h.UploadRows)
	group.POST("/drive/load", h.LoadDriveFile)
	group.POST("/drive/latest", h.LoadDriveLatest)
	group.POST("/storage/load", h.LoadStorageObject)
	group.POST("/storage/latest", h.LoadStorageLatest)
}

func (h *DashboardHandler) parseFilter(c *gin.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(domain.DefaultPageSize))); err == nil && size > 0 {
		filter.PageSize = size
	}

	filter.Category = strings.TrimSpace(c.Query("category"))
	filter.Query = strings.TrimSpace(c.Query("q"))

	status, ok := domain.ParseStockStatus(c.Query("status"))
	if !ok {
		return filter, errors.New("invalid status value")
	}
	filter.Status = status

	return filter.Normalize(), nil
}

func (h *DashboardHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.dashboard.Snapshot()
	if errors.Is(err, service.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) ResetSnapshot(c *gin.Context) {
	h.dashboard.Reset(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Metrics())
}

func (h *DashboardHandler) GetProducts(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, total := h.dashboard.Products(filter)
	c.JSON(http.StatusOK, gin.H{
		"items":        items,
		"total":        total,
		"page":         filter.Page,
		"page_size":    filter.PageSize,
		"status_label": domain.StockStatusLabel(filter.Status),
	})
}

func (h *DashboardHandler) GetLowStock(c *gin.Context) {
	items := h.dashboard.LowStockItems()
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *DashboardHandler) GetOverstock(c *gin.Context) {
	items := h.dashboard.OverstockItems()
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *DashboardHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	snap, err := h.dashboard.LoadFile(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		writeLoadError(c, err, http.StatusUnprocessableEntity)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) UploadRows(c *gin.Context) {
	var rows []inventory.RawRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of row objects", "details": err.Error()})
		return
	}

	snap, err := h.dashboard.Upload(c.Request.Context(), c.Query("source"), rows)
	if err != nil {
		writeLoadError(c, err, http.StatusUnprocessableEntity)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) LoadDriveFile(c *gin.Context) {
	fileID := strings.TrimSpace(c.Query("fileId"))
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId parameter is required"})
		return
	}
	src, err := drive.ServiceForRequest(c.Request, h.drive, h.driveTokens)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.dashboard.LoadRemote(c.Request.Context(), src, fileID)
	if err != nil {
		writeLoadError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) LoadDriveLatest(c *gin.Context) {
	src, err := drive.ServiceForRequest(c.Request, h.drive, h.driveTokens)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if folderID := strings.TrimSpace(c.Query("folderId")); folderID != "" {
		src = src.InFolder(folderID)
	}

	snap, err := h.dashboard.LoadLatest(c.Request.Context(), src)
	if err != nil {
		writeLoadError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) LoadStorageObject(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key parameter is required"})
		return
	}

	snap, err := h.dashboard.LoadRemote(c.Request.Context(), h.storage, key)
	if err != nil {
		writeLoadError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

func (h *DashboardHandler) LoadStorageLatest(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}

	snap, err := h.dashboard.LoadLatest(c.Request.Context(), h.storage)
	if err != nil {
		writeLoadError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

// writeLoadError maps load failures to a status; unknown errors get
// fallback.
func writeLoadError(c *gin.Context, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, service.ErrEmptyUpload), errors.Is(err, sheet.ErrEmptyFile):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrNoRemoteFile):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSuperseded):
		status = http.StatusConflict
	}

	log.Warn().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("dashboard load failed")
	c.JSON(status, gin.H{"error": "failed to load inventory", "details": err.Error()})
}
