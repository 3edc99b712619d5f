package rest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// StaticConfig serves the built frontend bundle. In SPA mode every path that
// is not a file and not excluded falls back to the index file so client-side
// routing works after a hard refresh.
type StaticConfig struct {
	Prefix          string   // URL prefix (e.g. "/")
	Directory       string   // Physical directory to serve
	EnableSPA       bool     // Fallback to the index file for unknown paths
	IndexFile       string   // Index file name (default: "index.html")
	ExcludePrefixes []string // Path prefixes excluded from SPA fallback (e.g. "/api")
}

// hashed assets get a long immutable cache; the index file must always
// revalidate so a new deploy is picked up immediately.
var assetExtensions = map[string]bool{
	".js": true, ".css": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".webp": true, ".woff": true, ".woff2": true,
	".ttf": true, ".ico": true, ".json": true,
}

func (config *StaticConfig) headersFor(requestPath string) map[string]string {
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	if assetExtensions[strings.ToLower(filepath.Ext(requestPath))] {
		headers["Cache-Control"] = "public, max-age=31536000, immutable"
	} else {
		headers["Cache-Control"] = "no-cache, no-store, must-revalidate"
	}

	return headers
}

// RegisterStatic mounts the static handler on the app.
func (receiver *PortalApp) RegisterStatic(config StaticConfig) {
	if config.IndexFile == "" {
		config.IndexFile = "index.html"
	}
	if config.Prefix == "" {
		config.Prefix = "/"
	}

	handler := func(c echo.Context) error {
		requestPath := c.Param("*")

		for _, excluded := range config.ExcludePrefixes {
			if strings.HasPrefix("/"+requestPath, excluded) {
				return echo.ErrNotFound
			}
		}

		filePath := filepath.Join(config.Directory, filepath.Clean("/"+requestPath))

		info, err := os.Stat(filePath)
		if err != nil || info.IsDir() {
			if !config.EnableSPA {
				return echo.ErrNotFound
			}
			filePath = filepath.Join(config.Directory, config.IndexFile)
			requestPath = config.IndexFile
		}

		for key, value := range config.headersFor(requestPath) {
			c.Response().Header().Set(key, value)
		}

		return c.File(filePath)
	}

	group := receiver.EchoApp.Group(strings.TrimSuffix(config.Prefix, "/"))
	group.GET("/*", handler)
	group.HEAD("/*", handler)
}
