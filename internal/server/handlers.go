package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
	"github.com/j-veylop/inspectro-tui/internal/usage"
)

// getUsage serves raw usage between startTS and endTS, both unix seconds.
func (s *Server) getUsage(c *gin.Context) {
	start, ok := unixParam(c, "startTS")
	if !ok {
		return
	}
	end, ok := unixParam(c, "endTS")
	if !ok {
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": (&usage.InvalidRangeError{Start: start, End: end}).Error()})
		return
	}

	snap, err := s.usage.FetchUsage(c.Request.Context(), start, end, strings.TrimSpace(c.Query("q")))
	if errors.Is(err, models.ErrNoContent) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		logger.Error("failed to fetch usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.NewUsageResponse(snap))
}

// getUsageSeries serves the aggregated dashboard. The window comes from
// startTS/endTS or from a range preset; with neither the dashboard is empty.
func (s *Server) getUsageSeries(c *gin.Context) {
	q := dashboard.Query{Filter: strings.TrimSpace(c.Query("q"))}

	if preset := c.Query("range"); preset != "" {
		r, ok := models.ParseDateRange(preset)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown range " + strconv.Quote(preset)})
			return
		}
		q.From, q.To = r.Bounds(time.Now().In(s.dashboard.Location()))
	} else if c.Query("startTS") != "" || c.Query("endTS") != "" {
		start, ok := unixParam(c, "startTS")
		if !ok {
			return
		}
		end, ok := unixParam(c, "endTS")
		if !ok {
			return
		}
		q.From, q.To = &start, &end
	}

	d, err := s.dashboard.Load(c.Request.Context(), q)
	var rangeErr *usage.InvalidRangeError
	if errors.As(err, &rangeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": rangeErr.Error()})
		return
	}
	if errors.Is(err, dashboard.ErrWindowTooLong) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error("failed to load usage series", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newSeriesResponse(d))
}

// getLLM lists providers with their models. API keys are never exposed.
func (s *Server) getLLM(c *gin.Context) {
	cat, err := s.catalog.GetCatalog(c.Request.Context())
	if err != nil {
		logger.Error("failed to read catalog", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.NewProviderResponses(cat))
}

func unixParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " not found"})
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sec < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed parsing " + name})
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}
