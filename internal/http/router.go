// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freightdesk/internal/http/middleware"
	"freightdesk/internal/modules/directory"
	"freightdesk/internal/modules/report"
	"freightdesk/internal/modules/trip"
)

type RouterDeps struct {
	Trips      *trip.Service
	Reports    *report.Service
	Directory  *directory.Service
	Summarizer ReportSummarizer
	JWTSecret  string
	Log        *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	tripHandler := NewTripHandler(deps.Trips)
	reportHandler := NewReportHandler(deps.Reports, deps.Summarizer)
	directoryHandler := NewDirectoryHandler(deps.Directory)

	api := r.Group("/api", middleware.Auth(deps.JWTSecret))

	api.POST("/trips", tripHandler.Create)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)
	api.PATCH("/trips/:id", tripHandler.Update)
	api.POST("/trips/:id/status", tripHandler.UpdateStatus)
	api.DELETE("/trips/:id", tripHandler.Delete)

	api.GET("/reports/payments", reportHandler.Get)
	api.POST("/reports/payments/summary", reportHandler.Summarize)

	api.GET("/directory/parties/:id", directoryHandler.Get)
	api.PUT("/directory/parties/:id", directoryHandler.Put)

	return r
}
