package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"FeedNotifier/internal/infrastructure/miniflux"
	"FeedNotifier/internal/pipeline"
)

// RunHistory exposes what the scheduler knows about past runs.
type RunHistory interface {
	LastReport() (pipeline.Report, bool)
	Skipped() int
}

// WatermarkReader exposes the committed fetch watermark.
type WatermarkReader interface {
	Watermark() miniflux.Watermark
}

// Info is static process metadata.
type Info struct {
	Version  string
	Interval time.Duration
	Stages   []string
}

// Handler serves read-only process state.
type Handler struct {
	info      Info
	history   RunHistory
	watermark WatermarkReader
	started   time.Time
}

// NewHandler creates the status handler.
func NewHandler(info Info, history RunHistory, watermark WatermarkReader) *Handler {
	return &Handler{info: info, history: history, watermark: watermark, started: time.Now()}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.info.Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

type statusResponse struct {
	Interval    string           `json:"interval"`
	Stages      []string         `json:"stages"`
	Watermark   *time.Time       `json:"watermark"`
	SkippedRuns int              `json:"skipped_runs"`
	LastRun     *pipeline.Report `json:"last_run"`
}

// Status reports the last run, the current watermark and the schedule.
func (h *Handler) Status(c *gin.Context) {
	resp := statusResponse{
		Interval: h.info.Interval.String(),
		Stages:   h.info.Stages,
	}
	if h.watermark != nil {
		if at, ok := h.watermark.Watermark().Time(); ok {
			resp.Watermark = &at
		}
	}
	if h.history != nil {
		resp.SkippedRuns = h.history.Skipped()
		if report, ok := h.history.LastReport(); ok {
			resp.LastRun = &report
		}
	}
	c.JSON(http.StatusOK, resp)
}
