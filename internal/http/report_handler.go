// README: Payment report handlers; the roll-up endpoint and the optional AI summary.
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/http/middleware"
	"freightdesk/internal/modules/report"
	"freightdesk/internal/modules/trip"
)

// ReportSummarizer is the optional narrative generator; nil disables the
// summary endpoint.
type ReportSummarizer interface {
	Summarize(ctx context.Context, r report.Report) (string, error)
}

type ReportHandler struct {
	reports    *report.Service
	summarizer ReportSummarizer
}

func NewReportHandler(svc *report.Service, summarizer ReportSummarizer) *ReportHandler {
	return &ReportHandler{reports: svc, summarizer: summarizer}
}

func (h *ReportHandler) Get(c *gin.Context) {
	q, err := h.query(c)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := h.reports.Build(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ReportHandler) Summarize(c *gin.Context) {
	if h.summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary generation is not configured"})
		return
	}
	q, err := h.query(c)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := h.reports.Build(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	text, err := h.summarizer.Summarize(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "summary generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": text})
}

func (h *ReportHandler) query(c *gin.Context) (report.Query, error) {
	claims, _ := middleware.ClaimsFrom(c)
	filters, err := parseFilters(c)
	if err != nil {
		return report.Query{}, err
	}
	groupBy, ok := report.ParseGroupBy(c.Query("group_by"))
	if !ok {
		return report.Query{}, fmt.Errorf("%w: unknown group_by %q", trip.ErrValidation, c.Query("group_by"))
	}
	return report.Query{
		Role:     claims.Role,
		CallerID: claims.Subject,
		Filters:  filters,
		GroupBy:  groupBy,
	}, nil
}
