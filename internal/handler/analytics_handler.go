package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pps-admin-api/internal/service"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
	"github.com/noah-isme/pps-admin-api/pkg/export"
	"github.com/noah-isme/pps-admin-api/pkg/response"
)

// AnalyticsHandler exposes snapshot, flow and timeline endpoints.
type AnalyticsHandler struct {
	snapshots *service.SnapshotService
	flows     *service.FlowService
	timelines *service.TimelineService
	exports   *service.ExportService
	now       func() time.Time
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(snapshots *service.SnapshotService, flows *service.FlowService, timelines *service.TimelineService, exports *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		snapshots: snapshots,
		flows:     flows,
		timelines: timelines,
		exports:   exports,
		now:       time.Now,
	}
}

// cutoffFromQuery resolves the requested cutoff instant. A missing date
// means "now"; a malformed date is a validation error, never a silent
// fallback to the current instant.
func (h *AnalyticsHandler) cutoffFromQuery(c *gin.Context) (time.Time, int, error) {
	cutoff := h.now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "date must be RFC3339 or YYYY-MM-DD")
		}
		cutoff = parsed.UTC()
	}

	year := cutoff.Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "year must be an integer")
		}
		year = parsed
	}
	return cutoff, year, nil
}

// Snapshot godoc
// @Summary Population snapshot at a cutoff instant
// @Tags Analytics
// @Produce json
// @Param date query string false "Cutoff instant (RFC3339 or YYYY-MM-DD, default now)"
// @Param year query int false "Queried year (default cutoff year)"
// @Success 200 {object} response.Envelope
// @Router /analytics/snapshot [get]
func (h *AnalyticsHandler) Snapshot(c *gin.Context) {
	cutoff, year, err := h.cutoffFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot, cached, err := h.snapshots.Compute(c.Request.Context(), cutoff, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"cached": cached})
}

// Flow godoc
// @Summary Period flow metrics for a year
// @Tags Analytics
// @Produce json
// @Param year query int false "Target year (default current)"
// @Success 200 {object} response.Envelope
// @Router /analytics/flow [get]
func (h *AnalyticsHandler) Flow(c *gin.Context) {
	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
			return
		}
		year = parsed
	}

	metrics, cached, err := h.flows.Compute(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, nil, map[string]interface{}{"cached": cached})
}

// Timeline godoc
// @Summary Monthly launch timeline for a year
// @Tags Analytics
// @Produce json
// @Param year query int false "Target year (default current)"
// @Success 200 {object} response.Envelope
// @Router /analytics/timeline [get]
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
			return
		}
		year = parsed
	}

	timeline, cached, err := h.timelines.Build(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeline, nil, map[string]interface{}{"cached": cached})
}

// SnapshotExport godoc
// @Summary Export the snapshot's active population
// @Tags Analytics
// @Produce application/octet-stream
// @Param date query string false "Cutoff instant (RFC3339 or YYYY-MM-DD, default now)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /analytics/snapshot/export [get]
func (h *AnalyticsHandler) SnapshotExport(c *gin.Context) {
	cutoff, year, err := h.cutoffFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot, _, err := h.snapshots.Compute(c.Request.Context(), cutoff, year)
	if err != nil {
		response.Error(c, err)
		return
	}

	table := h.exports.SnapshotTable(snapshot)
	writeTable(c, table, "snapshot", h.now())
}

func writeTable(c *gin.Context, table export.Table, name string, now time.Time) {
	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, err := export.PDF(table, now)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, err := export.CSV(table)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
