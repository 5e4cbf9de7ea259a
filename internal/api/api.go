package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/invpulse/internal/api/handlers"
	"github.com/andresuchdata/invpulse/internal/api/middleware"
	"github.com/andresuchdata/invpulse/internal/drive"
	"github.com/andresuchdata/invpulse/internal/service"
	"github.com/andresuchdata/invpulse/internal/storage"
)

type Services struct {
	Dashboard *service.Dashboard
	// Drive is the service account client, nil when none is configured.
	Drive       *drive.Service
	DriveTokens drive.TokenServiceFunc
	// Storage is nil when no bucket is configured.
	Storage        *storage.Source
	MaxUploadBytes int64
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok", "loaded": false}
		if services != nil && services.Dashboard != nil {
			if snap, err := services.Dashboard.Snapshot(); err == nil {
				body["loaded"] = true
				body["version"] = snap.Version
			}
		}
		c.JSON(http.StatusOK, body)
	})

	if services == nil || services.Dashboard == nil {
		return router
	}

	dashboardHandler := handlers.NewDashboardHandler(services.Dashboard, handlers.DashboardOptions{
		Drive:          services.Drive,
		DriveTokens:    services.DriveTokens,
		Storage:        services.Storage,
		MaxUploadBytes: services.MaxUploadBytes,
	})
	dashboardHandler.RegisterRoutes(router.Group("/api/v1/dashboard"))

	// Drive browsing keeps its own mux router.
	driveHandler := drive.NewHandler(
		services.Drive,
		drive.NewIngestService(services.Drive, services.Dashboard),
		services.DriveTokens,
	)
	router.Any("/api/drive/*path", gin.WrapH(driveHandler.Router()))

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
