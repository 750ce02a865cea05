package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) getStatus(c echo.Context) error {
	resp := map[string]any{
		"version":   config.Version,
		"startTime": s.startTime.UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.health != nil {
		resp["health"] = s.health.Summary()
	}
	if s.cache != nil {
		stats := s.cache.Stats()
		resp["cache"] = map[string]any{
			"enabled": stats.Enabled,
			"size":    stats.Size,
			"hitRate": stats.HitRate,
		}
	}
	if s.hub != nil {
		resp["websocketClients"] = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}

// GET /api/v1/cache/stats
func (s *Server) getCacheStats(c echo.Context) error {
	if s.cache == nil {
		return echo.NewHTTPError(http.StatusNotFound, "cache is not configured")
	}
	return c.JSON(http.StatusOK, s.cache.Stats())
}

// DELETE /api/v1/cache?category=
func (s *Server) clearCache(c echo.Context) error {
	if s.cache == nil {
		return echo.NewHTTPError(http.StatusNotFound, "cache is not configured")
	}

	category := c.QueryParam("category")
	if category == "" {
		removed := s.cache.InvalidateAll()
		s.logger.Info().Int("removed", removed).Msg("Cache cleared")
		return c.JSON(http.StatusOK, map[string]any{"removed": removed})
	}

	for _, known := range cache.Categories {
		if string(known) == category {
			removed := s.cache.Invalidate(known)
			s.logger.Info().Str("category", category).Int("removed", removed).Msg("Cache category cleared")
			return c.JSON(http.StatusOK, map[string]any{"removed": removed, "category": category})
		}
	}
	return echo.NewHTTPError(http.StatusBadRequest, "unknown cache category "+category)
}
